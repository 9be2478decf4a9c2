package configcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/discourse-markdown/api"
	"github.com/open-cli-collective/discourse-markdown/internal/config"
	"github.com/open-cli-collective/discourse-markdown/internal/view"
)

// NewCmdTest creates the config test command.
func NewCmdTest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test connectivity with configured credentials",
		Long: `Test that dmd can reach your Discourse site with the current configuration.

Without an API key only the public site info is checked. With a key the
user it acts as is looked up too.`,
		Example: `  # Test connection
  dmd config test`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadWithEnv(config.ResolvePath(configPath))
			if err != nil {
				return fmt.Errorf("failed to load config: %w (run 'dmd init' to configure)", err)
			}
			return runTest(cmd.Context(), cmd.OutOrStdout(), cfg, noColor)
		},
	}

	return cmd
}

func runTest(ctx context.Context, w io.Writer, cfg *config.Config, noColor bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := cfg.ValidateRemote(); err != nil {
		return fmt.Errorf("invalid config: %w (run 'dmd init' to configure)", err)
	}

	r := view.NewRenderer(view.FormatTable, noColor)
	r.SetWriter(w)

	r.RenderText(fmt.Sprintf("Testing connection to %s...", cfg.URL))

	client := api.NewClient(cfg.URL, cfg.APIKey, cfg.APIUsername)

	site, err := client.GetSiteInfo(ctx)
	if err != nil {
		return reportFailure(r, err)
	}
	r.Success("Reached " + site.Title)

	if cfg.APIKey == "" {
		r.RenderText("")
		r.Warning("No API key configured; hashtag and watched word lookups may be limited.")
		return nil
	}

	user, err := client.GetCurrentUser(ctx)
	if err != nil {
		return reportFailure(r, err)
	}

	r.Success("Authentication successful")
	r.Success("API access verified")
	r.RenderText("")
	r.RenderKeyValue("Authenticated as", user.Username)
	if !user.Admin {
		r.Warning("Watched words need an admin API key.")
	}

	return nil
}

// reportFailure prints a hint for err and returns the error to exit with.
func reportFailure(r *view.Renderer, err error) error {
	var apiErr *api.ErrorResponse
	if !errors.As(err, &apiErr) {
		r.Error(fmt.Sprintf("Connection failed: %v", err))
		r.RenderText("\nCheck your URL with: dmd config show")
		r.RenderText("Reconfigure with: dmd init")
		return fmt.Errorf("connection failed: %w", err)
	}

	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		r.Error("Authentication failed: 401 Unauthorized")
		r.RenderText("\nCheck your credentials with: dmd config show")
		r.RenderText("Reconfigure with: dmd init")
		return fmt.Errorf("authentication failed")
	case http.StatusForbidden:
		r.Error("Access denied: 403 Forbidden")
		r.RenderText("\nCheck your permissions.")
		return fmt.Errorf("access denied")
	default:
		r.Error(fmt.Sprintf("Unexpected response: %d", apiErr.StatusCode))
		return fmt.Errorf("unexpected status code: %d", apiErr.StatusCode)
	}
}
