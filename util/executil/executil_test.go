package executil

import (
	"bytes"
	"io"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdoutTeePipe(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no sh on windows")
	}

	var tee bytes.Buffer
	cmd := Command("sh", "-c", "echo hello")
	pipe, err := cmd.StdoutTeePipe(&tee)
	require.NoError(t, err)

	err = cmd.Start()
	require.NoError(t, err)
	err = cmd.Wait()
	require.NoError(t, err)

	out, err := io.ReadAll(pipe)
	require.NoError(t, err)
	require.NoError(t, pipe.Close())

	assert.Equal(t, "hello\n", string(out))
	assert.Equal(t, "hello\n", tee.String())
}

func TestStdoutTeePipeAfterStdoutSet(t *testing.T) {
	cmd := Command("true")
	cmd.Stdout = &bytes.Buffer{}
	_, err := cmd.StdoutTeePipe(nil)
	require.Error(t, err)
}

func TestRunNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no sh on windows")
	}

	cmd := Command("sh", "-c", "exit 7")
	err := cmd.Run()
	require.Error(t, err)
	assert.Equal(t, 7, cmd.ProcessState.ExitCode())
}
