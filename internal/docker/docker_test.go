package docker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunArgs_Detached(t *testing.T) {
	opts := &RunOptions{
		Name:  "incbench-json-c-01ABC",
		Image: "gcr.io/oss-fuzz/json-c",
		Env:   []string{"SANITIZER=address", "FUZZING_LANGUAGE=c"},
		Binds: []string{"/work/project-src:/src/json-c"},
	}

	assert.Equal(t, []string{
		"run", "-d", "--entrypoint", "sleep",
		"--name", "incbench-json-c-01ABC",
		"-e", "SANITIZER=address",
		"-e", "FUZZING_LANGUAGE=c",
		"-v", "/work/project-src:/src/json-c",
		"gcr.io/oss-fuzz/json-c",
		"infinity",
	}, runArgs(opts, true))
}

func TestRunArgs_OneShot(t *testing.T) {
	opts := &RunOptions{
		Image: "gcr.io/oss-fuzz/json-c:inc-address",
		Env:   []string{"RTS_ON=1"},
	}

	assert.Equal(t, []string{
		"run", "--rm",
		"-e", "RTS_ON=1",
		"gcr.io/oss-fuzz/json-c:inc-address",
	}, runArgs(opts, false))
}
