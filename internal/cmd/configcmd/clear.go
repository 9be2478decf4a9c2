package configcmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/discourse-markdown/internal/config"
	"github.com/open-cli-collective/discourse-markdown/internal/view"
)

// envVars are the variables LoadFromEnv reads.
var envVars = []string{
	"DMD_URL", "DMD_API_KEY", "DMD_API_USERNAME",
	"DMD_DEFAULT_CODE_LANG", "DMD_TYPOGRAPHER", "DMD_HIGHLIGHT_CODE",
	"DISCOURSE_URL", "DISCOURSE_API_KEY", "DISCOURSE_API_USERNAME",
}

// NewCmdClear creates the config clear command.
func NewCmdClear() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove stored configuration",
		Long:  `Delete the dmd configuration file. Environment variables will still be used if set.`,
		Example: `  # Clear config
  dmd config clear`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			configPath, _ := cmd.Flags().GetString("config")
			return runClear(cmd.OutOrStdout(), config.ResolvePath(configPath), noColor)
		},
	}

	return cmd
}

func runClear(w io.Writer, configPath string, noColor bool) error {
	err := os.Remove(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove config file: %w", err)
	}

	r := view.NewRenderer(view.FormatTable, noColor)
	r.SetWriter(w)

	if os.IsNotExist(err) {
		r.Success("No config file to remove")
	} else {
		r.Success("Configuration cleared from " + configPath)
	}

	if active := activeEnvVars(); len(active) > 0 {
		r.RenderText("")
		r.Warning("Environment variables will still be used: " + strings.Join(active, ", "))
	}

	return nil
}

func activeEnvVars() []string {
	var active []string
	for _, v := range envVars {
		if os.Getenv(v) != "" {
			active = append(active, v)
		}
	}
	return active
}
