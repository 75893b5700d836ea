package cmdutils

import (
	"os/exec"
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapSilentError(t *testing.T) {
	errOriginal := errors.New("TestError")
	errSilent := WrapSilentError(errOriginal)

	var silentErr *SilentError
	assert.True(t, errors.As(errSilent, &silentErr))
	assert.ErrorIs(t, errSilent, errOriginal)
	assert.Equal(t, "TestError", errSilent.Error())
}

func TestWrapIncorrectUsageError(t *testing.T) {
	errOriginal := errors.New("TestError")
	errUsage := WrapIncorrectUsageError(errOriginal)

	var usageErr *IncorrectUsageError
	assert.True(t, errors.As(errUsage, &usageErr))
	assert.ErrorIs(t, errUsage, errOriginal)
}

func TestWrapExecError(t *testing.T) {
	cmd := exec.Command("false")
	err := cmd.Run()
	require.Error(t, err)

	wrapped := WrapExecError(errors.WithStack(err), cmd)
	assert.Contains(t, wrapped.Error(), "false")
	assert.Contains(t, wrapped.Error(), "exited with code 1")

	assert.NoError(t, WrapExecError(nil, cmd))
}

func TestSignalError(t *testing.T) {
	err := NewSignalError(syscall.SIGTERM)
	assert.Contains(t, err.Error(), "terminated by signal 15")
}
