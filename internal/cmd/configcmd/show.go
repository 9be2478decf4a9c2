package configcmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/discourse-markdown/internal/config"
	"github.com/open-cli-collective/discourse-markdown/internal/view"
)

// NewCmdShow creates the config show command.
func NewCmdShow() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long:  `Display the current dmd configuration with credential source indicators.`,
		Example: `  # Show current config
  dmd config show

  # As JSON
  dmd config show -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			output, _ := cmd.Flags().GetString("output")
			configPath, _ := cmd.Flags().GetString("config")
			return runShow(cmd.OutOrStdout(), config.ResolvePath(configPath), output, noColor)
		},
	}

	return cmd
}

// shownField is one credential line of config show.
type shownField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// showReport is the JSON form of config show.
type showReport struct {
	Fields     []shownField      `json:"fields"`
	Render     map[string]string `json:"render"`
	ConfigFile string            `json:"config_file"`
	FileFound  bool              `json:"file_found"`
}

// maskSecret keeps the first and last four characters of long secrets.
func maskSecret(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

func runShow(w io.Writer, configPath, output string, noColor bool) error {
	if err := view.ValidateFormat(output); err != nil {
		return err
	}

	// Load file config (may not exist)
	fileCfg, fileErr := config.Load(configPath)
	if fileErr != nil {
		fileCfg = &config.Config{}
	}

	// Load full config with env overrides
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	field := func(name, value, fileValue string, secret bool, envVars ...string) shownField {
		if value == "" {
			return shownField{Name: name, Source: "-"}
		}
		display := value
		if secret {
			display = maskSecret(value)
		}

		// Determine source
		source := "config"
		if fileErr != nil {
			source = "-"
		}
		for _, envVar := range envVars {
			if v := os.Getenv(envVar); v != "" && v == value {
				source = envVar
				break
			}
		}
		if fileValue != value && source == "config" {
			source = "-"
		}
		return shownField{Name: name, Value: display, Source: source}
	}

	fields := []shownField{
		field("URL", cfg.URL, strings.TrimRight(fileCfg.URL, "/"), false, "DMD_URL", "DISCOURSE_URL"),
		field("API Key", cfg.APIKey, fileCfg.APIKey, true, "DMD_API_KEY", "DISCOURSE_API_KEY"),
		field("API Username", cfg.APIUsername, fileCfg.APIUsername, false, "DMD_API_USERNAME", "DISCOURSE_API_USERNAME"),
		field("Default Code Lang", cfg.DefaultCodeLang, fileCfg.DefaultCodeLang, false, "DMD_DEFAULT_CODE_LANG"),
	}

	opts := cfg.RenderOptions()
	settings := [][]string{
		{"typographer", strconv.FormatBool(opts.Typographer)},
		{"highlight_code", strconv.FormatBool(opts.HighlightCode)},
		{"unicode_usernames", strconv.FormatBool(opts.UnicodeUsernames)},
		{"traditional_linebreaks", strconv.FormatBool(opts.TraditionalLinebreaks)},
		{"hashtag_types", strings.Join(opts.HashtagTypesInPriorityOrder, ", ")},
		{"watched_words", fmt.Sprintf("%d replace, %d link", len(cfg.WatchedWords.Replace), len(cfg.WatchedWords.Link))},
	}

	r := view.NewRenderer(view.Format(output), noColor)
	r.SetWriter(w)

	if view.Format(output) == view.FormatJSON {
		render := make(map[string]string, len(settings))
		for _, s := range settings {
			render[s[0]] = s[1]
		}
		return r.RenderJSON(showReport{
			Fields:     fields,
			Render:     render,
			ConfigFile: configPath,
			FileFound:  fileErr == nil,
		})
	}

	for _, f := range fields {
		if f.Value == "" {
			r.RenderKeyValue(f.Name, "-")
			continue
		}
		r.RenderKeyValue(f.Name, fmt.Sprintf("%s  (source: %s)", f.Value, f.Source))
	}

	r.RenderText("")
	r.RenderTable([]string{"SETTING", "VALUE"}, settings)

	r.RenderText("")
	r.RenderKeyValue("Config file", configPath)
	if fileErr != nil {
		r.RenderText("(file not found)")
	}

	return nil
}
