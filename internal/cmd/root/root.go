// Package root provides the root command for the dmd CLI.
package root

import (
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/discourse-markdown/internal/cmd/completion"
	"github.com/open-cli-collective/discourse-markdown/internal/cmd/configcmd"
	"github.com/open-cli-collective/discourse-markdown/internal/cmd/cook"
	initcmd "github.com/open-cli-collective/discourse-markdown/internal/cmd/init"
	"github.com/open-cli-collective/discourse-markdown/internal/version"
)

// NewCmdRoot creates the root command for dmd.
func NewCmdRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dmd",
		Short: "Render Discourse post markdown",
		Long: `dmd renders Discourse post markdown the way a Discourse site cooks it.

It understands BBCode ([quote], [details], [code], [b], [url], ...),
@mentions, #hashtags and watched words, and can turn cooked HTML back
into markdown.

Get started by running: echo 'Hello @team' | dmd cook`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
	}

	// Global flags
	cmd.PersistentFlags().StringP("config", "c", "", "config file (default: ~/.config/dmd/config.yml)")
	cmd.PersistentFlags().StringP("output", "o", "table", "output format: table, json, plain")
	cmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	cmd.SetVersionTemplate(version.Template())

	// Subcommands
	cmd.AddCommand(cook.NewCmdCook())
	cmd.AddCommand(cook.NewCmdTokens())
	cmd.AddCommand(cook.NewCmdUncook())
	cmd.AddCommand(initcmd.NewCmdInit())
	cmd.AddCommand(configcmd.NewCmdConfig())
	cmd.AddCommand(completion.NewCmdCompletion())

	return cmd
}
