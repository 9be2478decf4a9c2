// Package configcmd provides config management commands.
package configcmd

import (
	"github.com/spf13/cobra"

	initcmd "github.com/open-cli-collective/discourse-markdown/internal/cmd/init"
)

// NewCmdConfig creates the config command.
func NewCmdConfig() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage dmd configuration",
		Long:  `Commands for creating, viewing, testing, and clearing dmd configuration.`,
	}

	cmd.AddCommand(initcmd.NewCmdInit())
	cmd.AddCommand(NewCmdShow())
	cmd.AddCommand(NewCmdTest())
	cmd.AddCommand(NewCmdClear())

	return cmd
}
