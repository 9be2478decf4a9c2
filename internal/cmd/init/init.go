// Package init provides the init command for dmd.
package init

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/discourse-markdown/api"
	"github.com/open-cli-collective/discourse-markdown/internal/config"
)

type initOptions struct {
	configPath  string
	url         string
	apiUsername string
	noVerify    bool
}

// NewCmdInit creates the init command.
func NewCmdInit() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize dmd configuration",
		Long: `Initialize dmd with your Discourse site and render settings.

This command will guide you through setting up your Discourse URL, an
optional API key and the default render options. The configuration will
be saved to ~/.config/dmd/config.yml.

An API key is only needed to resolve hashtags on private categories or to
fetch watched words. To generate one:
  1. Open Admin > API on your Discourse site
  2. Click "New API Key"
  3. Copy the key (it won't be shown again)`,
		Example: `  # Interactive setup
  dmd init

  # Pre-populate URL
  dmd init --url https://forum.example.com`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			opts.configPath = config.ResolvePath(path)
			return runInit(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "Discourse URL (e.g., https://forum.example.com)")
	cmd.Flags().StringVar(&opts.apiUsername, "api-username", "", "Username the API key acts as")
	cmd.Flags().BoolVar(&opts.noVerify, "no-verify", false, "Skip connection verification")

	return cmd
}

func runInit(ctx context.Context, w io.Writer, opts *initOptions) error {
	configPath := opts.configPath

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		err := huh.NewConfirm().
			Title("Configuration already exists").
			Description(fmt.Sprintf("Overwrite %s?", configPath)).
			Value(&overwrite).
			Run()
		if err != nil {
			return err
		}
		if !overwrite {
			_, _ = fmt.Fprintln(w, "Initialization cancelled.")
			return nil
		}
	}

	cfg := &config.Config{
		URL:             opts.url,
		APIUsername:     opts.apiUsername,
		DefaultCodeLang: "auto",
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Discourse URL").
				Description("The site hashtags and watched words are fetched from").
				Placeholder("https://forum.example.com").
				Value(&cfg.URL).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("URL is required")
					}
					return nil
				}),

			huh.NewInput().
				Title("API Key (optional)").
				Description("Generate at: Admin > API > New API Key").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.APIKey),

			huh.NewInput().
				Title("API Username (optional)").
				Description("Username the API key acts as").
				Placeholder("system").
				Value(&cfg.APIUsername),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Default code language").
				Description("Language for fences without an info string").
				Placeholder("auto").
				Value(&cfg.DefaultCodeLang),

			huh.NewConfirm().
				Title("Enable typographer?").
				Description("Smart quotes, dashes and ellipses").
				Value(&cfg.Typographer),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	return finishInit(ctx, w, cfg, configPath, opts.noVerify)
}

// finishInit validates, verifies and saves a filled-in configuration.
func finishInit(ctx context.Context, w io.Writer, cfg *config.Config, configPath string, noVerify bool) error {
	cfg.NormalizeURL()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.ValidateRemote(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Verify connection unless skipped
	if !noVerify {
		_, _ = fmt.Fprint(w, "Verifying connection... ")
		if err := verifyConnection(ctx, cfg); err != nil {
			_, _ = fmt.Fprintln(w, "failed!")
			return fmt.Errorf("connection verification failed: %w", err)
		}
		_, _ = fmt.Fprintln(w, "success!")
	}

	if err := cfg.Save(configPath); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "\nConfiguration saved to %s\n", configPath)
	_, _ = fmt.Fprintln(w, "\nYou're all set! Try running:")
	_, _ = fmt.Fprintln(w, "  echo 'Hello @team #announcements' | dmd cook")
	_, _ = fmt.Fprintln(w, "  dmd tokens post.md")

	return nil
}

func verifyConnection(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client := api.NewClient(cfg.URL, cfg.APIKey, cfg.APIUsername)

	_, err := client.GetSiteInfo(ctx)
	if err == nil && cfg.APIKey != "" {
		_, err = client.GetCurrentUser(ctx)
	}
	if err == nil {
		return nil
	}

	var apiErr *api.ErrorResponse
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("authentication failed - check your API key and username")
	case http.StatusForbidden:
		return fmt.Errorf("access denied - check your permissions")
	default:
		return fmt.Errorf("unexpected status code: %d", apiErr.StatusCode)
	}
}
