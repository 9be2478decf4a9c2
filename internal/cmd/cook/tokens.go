package cook

import (
	"github.com/spf13/cobra"
)

// NewCmdTokens creates the tokens command.
func NewCmdTokens() *cobra.Command {
	opts := &cookOptions{tokens: true}

	cmd := &cobra.Command{
		Use:   "tokens [file...]",
		Short: "Print the token stream of post markdown",
		Long: `Print the token stream the renderer sees after every core rule ran.

Tokens are listed in order with inline children under their parent. The
table form indents by nesting level; json and plain are meant for tools.`,
		Example: `  # Inspect how a quote is parsed
  echo '[quote="alice, post:1, topic:2"]hi[/quote]' | dmd tokens

  # Machine readable
  dmd tokens post.md -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.output, _ = cmd.Flags().GetString("output")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			opts.errOut = cmd.ErrOrStderr()
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			inputs, err := readInputs(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runCook(cmd.Context(), cmd.OutOrStdout(), cfg, inputs, opts)
		},
	}

	addRenderFlags(cmd)
	addRemoteFlags(cmd, &opts.remote)

	return cmd
}
