package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var origOutput = Output

func TestMain(m *testing.M) {
	viper.Set("verbose", false)
	m.Run()
	viper.Set("verbose", false)

	Output = origOutput
}

func redirectOutput(t *testing.T) *bytes.Buffer {
	t.Helper()

	buf := &bytes.Buffer{}
	Output = buf
	t.Cleanup(func() {
		Output = origOutput
	})
	return buf
}

func TestDebugf_NoVerbose(t *testing.T) {
	buf := redirectOutput(t)

	Debugf("Test")

	assert.Empty(t, buf.String())
}

func TestDebugf_Verbose(t *testing.T) {
	buf := redirectOutput(t)

	viper.Set("verbose", true)
	Debugf("Test")
	viper.Set("verbose", false)

	assert.Contains(t, buf.String(), "Test")
}

func TestErrorf_Verbose(t *testing.T) {
	buf := redirectOutput(t)

	viper.Set("verbose", true)
	Errorf(errors.New("test-error"), "Test")
	viper.Set("verbose", false)

	assert.Contains(t, buf.String(), "Test")
	assert.Contains(t, buf.String(), "test-error")
}

func TestErrorf_NoVerbose(t *testing.T) {
	buf := redirectOutput(t)

	Errorf(errors.New("test-error"), "Test")

	assert.Contains(t, buf.String(), "Test")
	assert.NotContains(t, buf.String(), "test-error")
}

func TestError_NoMessage(t *testing.T) {
	buf := redirectOutput(t)

	Error(errors.New("test-error"))

	assert.Contains(t, buf.String(), "test-error")
}

func TestSuccess(t *testing.T) {
	buf := redirectOutput(t)

	Success("Test")

	assert.Contains(t, buf.String(), "Test\n")
}

func TestInfo(t *testing.T) {
	buf := redirectOutput(t)

	Info("Test")

	assert.Contains(t, buf.String(), "Test\n")
}

func TestWarn(t *testing.T) {
	buf := redirectOutput(t)

	Warn("Test")

	assert.Contains(t, buf.String(), "Test\n")
}

func TestFileSink(t *testing.T) {
	redirectOutput(t)

	path := filepath.Join(t.TempDir(), "run.log")
	err := WithFileSink(path)
	require.NoError(t, err)

	Info("sink me")
	CloseFileSink()
	Info("not in sink")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "sink me")
	assert.NotContains(t, string(content), "not in sink")
}
