package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/cmd/connect"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/cmd/create"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/cmd/start"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils/log"
)

// flagPrintVersion set flag to show current aesdsocket version.
var flagPrintVersion bool

// NewRootCommand builds the command tree. Without a subcommand the server
// is started, so "aesdsocket -d" behaves like "aesdsocket start -d".
func NewRootCommand() *cobra.Command {
	// c is the root command.
	c := &cobra.Command{
		Use:   "aesdsocket",
		Short: "Line-oriented TCP record log server",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Print version if specified.
			if flagPrintVersion {
				log.Info("version: %+v", utils.Tag)
				log.Info("commit hash: %+v", utils.GitHash)
				log.Info("utc build time: %+v", utils.BuildStamp)
				return nil
			}
			return start.Cmd.RunE(cmd, args)
		},
		SilenceErrors: true,
	}

	// Adds subcommands and flags.
	c.AddCommand(start.Cmd)
	c.AddCommand(connect.Cmd)
	c.AddCommand(create.Cmd)
	start.AddFlags(c.Flags())
	c.Flags().BoolVarP(&flagPrintVersion, "version", "v", false, "show the version info and exit")

	return c
}

// Execute builds the command tree and executes commands.
func Execute() error {
	return NewRootCommand().Execute()
}
