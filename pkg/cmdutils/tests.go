package cmdutils

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// ExecuteCommand runs an incbench command tree in-process with the
// given args and stdin, capturing combined stdout/stderr. Tests pass
// a fresh root command so persistent flag state never leaks between
// cases.
func ExecuteCommand(t *testing.T, cmd *cobra.Command, in io.Reader, args ...string) (string, error) {
	t.Helper()

	cmd.SetIn(in)
	cmd.SetArgs(args)

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	err := cmd.Execute()
	return strings.TrimSpace(buf.String()), err
}
