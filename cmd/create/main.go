// Package create - because packages cannot be named 'init' in go.
package create

import (
	_ "embed"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	usage   = "init"
	short   = "Creates a new aesdsocket.yml file"
	long    = "This command creates a new aesdsocket.yml file with the default settings in the current directory"
	example = "aesdsocket init"

	defaultConfigFileName = "aesdsocket.yml"
)

//go:embed default.yml
var defaultConfig []byte

var (
	// Cmd is the init command.
	Cmd = &cobra.Command{
		Use:        usage,
		Short:      short,
		Long:       long,
		SuggestFor: []string{"create", "new"},
		Example:    example,
		RunE:       executeInit,
	}
)

// executeInit implements the init command.
func executeInit(*cobra.Command, []string) error {
	return writeDefaultConfig(defaultConfigFileName)
}

// writeDefaultConfig writes the default configuration to path. An existing
// file is left untouched.
func writeDefaultConfig(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if _, err = f.Write(defaultConfig); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return f.Close()
}
