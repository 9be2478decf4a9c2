// Package completion provides shell completion generation commands.
package completion

import (
	"io"

	"github.com/spf13/cobra"
)

type shell struct {
	name    string
	short   string
	install string
	gen     func(root *cobra.Command, w io.Writer) error
}

var shells = []shell{
	{
		name:  "bash",
		short: "Generate bash completion script",
		install: `  source <(dmd completion bash)

  # Linux
  dmd completion bash | sudo tee /etc/bash_completion.d/dmd > /dev/null

  # macOS (requires bash-completion)
  dmd completion bash > $(brew --prefix)/etc/bash_completion.d/dmd`,
		gen: func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletion(w) },
	},
	{
		name:  "zsh",
		short: "Generate zsh completion script",
		install: `  # Enable completion if not already done
  echo "autoload -U compinit; compinit" >> ~/.zshrc

  dmd completion zsh > "${fpath[1]}/_dmd"`,
		gen: func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	},
	{
		name:    "fish",
		short:   "Generate fish completion script",
		install: `  dmd completion fish > ~/.config/fish/completions/dmd.fish`,
		gen:     func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	},
	{
		name:  "powershell",
		short: "Generate PowerShell completion script",
		install: `  dmd completion powershell | Out-String | Invoke-Expression

  # Add to your profile for every session
  dmd completion powershell >> $PROFILE`,
		gen: func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) },
	},
}

// NewCmdCompletion creates the completion command.
func NewCmdCompletion() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for dmd.

These scripts enable tab-completion for commands, flags, and arguments.
See each sub-command's help for installation instructions.`,
	}

	for _, sh := range shells {
		cmd.AddCommand(newCmdShell(sh))
	}

	return cmd
}

func newCmdShell(sh shell) *cobra.Command {
	return &cobra.Command{
		Use:                   sh.name,
		Short:                 sh.short,
		Long:                  sh.short + " for dmd.\n\nTo install:\n\n" + sh.install,
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return sh.gen(cmd.Root(), cmd.OutOrStdout())
		},
	}
}
