package cook

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/discourse-markdown/pkg/md"
)

// NewCmdUncook creates the uncook command.
func NewCmdUncook() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uncook [file]",
		Short: "Convert cooked HTML back to post markdown",
		Long: `Convert cooked post HTML back to Discourse markdown.

Quotes become [quote] blocks, resolved hashtags become #slug and heading
anchors are dropped. Content is read from the named file or stdin.`,
		Example: `  # Round trip a post
  dmd cook post.md | dmd uncook`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cooked, err := readInput(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runUncook(cmd.OutOrStdout(), cooked)
		},
	}

	return cmd
}

func runUncook(w io.Writer, cooked string) error {
	markdown, err := md.FromCooked(cooked)
	if err != nil {
		return fmt.Errorf("failed to convert cooked HTML: %w", err)
	}
	_, _ = fmt.Fprintln(w, markdown)
	return nil
}
