package envutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetenv(t *testing.T) {
	env, err := Setenv(nil, "SANITIZER", "address")
	require.NoError(t, err)
	assert.Equal(t, []string{"SANITIZER=address"}, env)

	// Replaces an existing entry instead of appending a duplicate
	env, err = Setenv(env, "SANITIZER", "undefined")
	require.NoError(t, err)
	assert.Equal(t, []string{"SANITIZER=undefined"}, env)

	_, err = Setenv(env, "BAD=KEY", "x")
	require.Error(t, err)
}

func TestGetenv(t *testing.T) {
	env := []string{"RTS_ON=1", "RTS_TOOL=jcgeks"}
	assert.Equal(t, "jcgeks", Getenv(env, "RTS_TOOL"))
	assert.Equal(t, "", Getenv(env, "MISSING"))
}

func TestToDockerArgs(t *testing.T) {
	args := ToDockerArgs([]string{"A=1", "B=2"})
	assert.Equal(t, []string{"-e", "A=1", "-e", "B=2"}, args)
}
