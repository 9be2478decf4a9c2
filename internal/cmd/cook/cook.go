// Package cook provides the cook, tokens and uncook commands.
package cook

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/open-cli-collective/discourse-markdown/internal/config"
	"github.com/open-cli-collective/discourse-markdown/internal/view"
	"github.com/open-cli-collective/discourse-markdown/pkg/md"
)

type cookOptions struct {
	tokens     bool
	postID     int
	noSanitize bool
	strict     bool
	remote     remoteOptions
	output     string
	noColor    bool
	errOut     io.Writer // warnings in text output; stderr when nil
}

// cookResult is the JSON form of a cooked post. File is set when more
// than one input is cooked.
type cookResult struct {
	File     string   `json:"file,omitempty"`
	Cooked   string   `json:"cooked"`
	Warnings []string `json:"warnings,omitempty"`
}

// fileTokens is the JSON form of one input's token dump.
type fileTokens struct {
	File   string          `json:"file"`
	Tokens []view.TokenRow `json:"tokens"`
}

// NewCmdCook creates the cook command.
func NewCmdCook() *cobra.Command {
	opts := &cookOptions{}

	cmd := &cobra.Command{
		Use:   "cook [file...]",
		Short: "Render post markdown to HTML",
		Long: `Render Discourse post markdown to the HTML Discourse stores as "cooked".

Content is read from the named files, or from standard input when no file
(or "-") is given. Several files are cooked concurrently and printed in
argument order. Render settings come from the config file; the flags below
override them for one run.

Hashtags are left raw unless --resolve-hashtags looks them up on the
configured site. --remote-watched-words adds the site's replace and link
watched words to the local ones (an admin API key is required).`,
		Example: `  # Cook a file
  dmd cook post.md

  # Cook from stdin with smart quotes
  echo '"Hello" -- world' | dmd cook --typographer

  # Resolve #hashtags against the configured site
  dmd cook post.md --resolve-hashtags

  # Show the token stream instead of HTML
  dmd cook post.md --tokens

  # Cook a directory of posts as JSON
  dmd cook posts/*.md -o json`,
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

	cmd.Flags().BoolVar(&opts.tokens, "tokens", false, "Print the token stream instead of HTML")
	cmd.Flags().IntVar(&opts.postID, "post-id", 0, "Id of the saved post (0 for a draft)")
	cmd.Flags().BoolVar(&opts.noSanitize, "no-sanitize", false, "Skip the allow-list sanitizer")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail when the render settings produce warnings")
	addRenderFlags(cmd)
	addRemoteFlags(cmd, &opts.remote)

	return cmd
}

// addRenderFlags registers flags that override config render settings.
// loadConfig applies them only when set.
func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("typographer", false, "Replace quotes, dashes and ellipses")
	cmd.Flags().Bool("highlight", false, "Highlight code fences server side")
	cmd.Flags().String("default-code-lang", "", "Language for fences without an info string")
}

func addRemoteFlags(cmd *cobra.Command, remote *remoteOptions) {
	cmd.Flags().BoolVar(&remote.resolveHashtags, "resolve-hashtags", false, "Resolve #hashtags against the configured site")
	cmd.Flags().BoolVar(&remote.watchedWords, "remote-watched-words", false, "Use the site's replace and link watched words")
}

// loadConfig loads the config file with env overrides, then flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithEnv(config.ResolvePath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("typographer") {
		cfg.Typographer, _ = flags.GetBool("typographer")
	}
	if flags.Changed("highlight") {
		cfg.HighlightCode, _ = flags.GetBool("highlight")
	}
	if flags.Changed("default-code-lang") {
		cfg.DefaultCodeLang, _ = flags.GetString("default-code-lang")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runCook(ctx context.Context, w io.Writer, cfg *config.Config, inputs []input, opts *cookOptions) error {
	if err := view.ValidateFormat(opts.output); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	srcs := make([]string, len(inputs))
	for i, in := range inputs {
		srcs[i] = in.src
	}
	renderOpts, err := buildOptions(ctx, cfg, opts.remote, strings.Join(srcs, "\n\n"))
	if err != nil {
		return err
	}
	renderOpts.PostID = opts.postID
	renderOpts.Sanitize = !opts.noSanitize

	cooker := md.New(renderOpts)
	warnings := cooker.Warnings()
	if opts.strict && len(warnings) > 0 {
		return fmt.Errorf("%d render setting warning(s): %s", len(warnings), warnings[0])
	}

	// One Cooker serves every input; renders share no state.
	tokens := make([][]*md.Token, len(inputs))
	cooked := make([]string, len(inputs))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range inputs {
		g.Go(func() error {
			tokens[i] = cooker.Tokens(inputs[i].src)
			if !opts.tokens {
				cooked[i] = cooker.Render(tokens[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	renderer := view.NewRenderer(view.Format(opts.output), opts.noColor)
	renderer.SetWriter(w)
	multi := len(inputs) > 1

	// JSON output carries the warnings in the document.
	if opts.output != "json" && len(warnings) > 0 {
		reportWarnings(warnings, opts)
	}

	if opts.tokens {
		return renderTokens(renderer, inputs, tokens, opts.output == "json")
	}

	if opts.output == "json" {
		if !multi {
			return renderer.RenderJSON(cookResult{Cooked: cooked[0], Warnings: warnings})
		}
		results := make([]cookResult, len(inputs))
		for i, in := range inputs {
			results[i] = cookResult{File: in.name, Cooked: cooked[i], Warnings: warnings}
		}
		return renderer.RenderJSON(results)
	}

	for i, in := range inputs {
		if multi {
			fileHeader(w, i, in.name)
		}
		_, _ = fmt.Fprint(w, cooked[i])
		if !strings.HasSuffix(cooked[i], "\n") {
			_, _ = fmt.Fprintln(w)
		}
	}
	return nil
}

func renderTokens(renderer *view.Renderer, inputs []input, tokens [][]*md.Token, asJSON bool) error {
	if len(inputs) == 1 {
		return renderer.RenderTokens(tokens[0])
	}
	if asJSON {
		dumps := make([]fileTokens, len(inputs))
		for i, in := range inputs {
			rows := view.TokenRows(tokens[i])
			if rows == nil {
				rows = []view.TokenRow{}
			}
			dumps[i] = fileTokens{File: in.name, Tokens: rows}
		}
		return renderer.RenderJSON(dumps)
	}
	for i, in := range inputs {
		if i > 0 {
			renderer.RenderText("")
		}
		renderer.RenderText("==> " + in.name + " <==")
		if err := renderer.RenderTokens(tokens[i]); err != nil {
			return err
		}
	}
	return nil
}

func reportWarnings(warnings []string, opts *cookOptions) {
	r := view.NewRenderer(view.FormatTable, opts.noColor)
	if opts.errOut != nil {
		r.SetWriter(opts.errOut)
	} else {
		r.SetWriter(os.Stderr)
	}
	for _, msg := range warnings {
		r.Warning(msg)
	}
}

// fileHeader separates the outputs of several inputs, as head(1) does.
func fileHeader(w io.Writer, i int, name string) {
	if i > 0 {
		_, _ = fmt.Fprintln(w)
	}
	_, _ = fmt.Fprintf(w, "==> %s <==\n", name)
}
