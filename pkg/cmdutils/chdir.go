package cmdutils

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Chdir honors the global --directory flag. Every verb resolves the
// OSS-Fuzz checkout, source dir and log dir relative to the working
// directory, so this has to run before any flag validation does.
func Chdir() error {
	workdir := viper.GetString("directory")
	if workdir == "" {
		return nil
	}
	return errors.WithStack(os.Chdir(workdir))
}
