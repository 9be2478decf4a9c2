// Package config provides configuration management for dmd.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"gopkg.in/yaml.v3"

	"github.com/open-cli-collective/discourse-markdown/pkg/md"
)

// Config holds the dmd configuration.
type Config struct {
	URL         string `yaml:"url,omitempty"`
	APIKey      string `yaml:"api_key,omitempty"`
	APIUsername string `yaml:"api_username,omitempty"`

	Typographer           bool     `yaml:"typographer,omitempty"`
	DefaultCodeLang       string   `yaml:"default_code_lang,omitempty"`
	UnicodeUsernames      bool     `yaml:"unicode_usernames,omitempty"`
	HighlightCode         bool     `yaml:"highlight_code,omitempty"`
	TraditionalLinebreaks bool     `yaml:"traditional_linebreaks,omitempty"`
	HashtagTypes          []string `yaml:"hashtag_types,omitempty"`
	OutputFormat          string   `yaml:"output_format,omitempty"`

	WatchedWords WatchedWords `yaml:"watched_words,omitempty"`
}

// WatchedWords are local watched-word lists, keyed by regular expression.
type WatchedWords struct {
	Replace map[string]md.WatchedWord `yaml:"replace,omitempty"`
	Link    map[string]md.WatchedWord `yaml:"link,omitempty"`
}

var codeLangPattern = regexp2.MustCompile(`^[\w+-]*$`, regexp2.None)

// Validate checks the render settings and the local watched words.
func (c *Config) Validate() error {
	if ok, _ := codeLangPattern.MatchString(c.DefaultCodeLang); !ok {
		return fmt.Errorf("default_code_lang %q must only contain letters, digits, _, + and -", c.DefaultCodeLang)
	}
	switch c.OutputFormat {
	case "", "table", "json", "plain":
	default:
		return fmt.Errorf("output_format %q must be table, json or plain", c.OutputFormat)
	}
	for _, list := range []map[string]md.WatchedWord{c.WatchedWords.Replace, c.WatchedWords.Link} {
		for _, expr := range sortedExprs(list) {
			if _, err := regexp2.Compile(expr, regexp2.None); err != nil {
				return fmt.Errorf("watched word %q: %w", expr, err)
			}
		}
	}
	return nil
}

// ValidateRemote checks the settings needed to talk to a Discourse site.
func (c *Config) ValidateRemote() error {
	if c.URL == "" {
		return errors.New("url is required")
	}

	// Validate URL scheme; plain http is only allowed for loopback
	if !strings.HasPrefix(c.URL, "https://") && !isLoopback(c.URL) {
		return errors.New("url must use https")
	}

	if c.APIKey != "" && c.APIUsername == "" {
		return errors.New("api_username is required with api_key")
	}

	return nil
}

func isLoopback(url string) bool {
	for _, prefix := range []string{"http://localhost", "http://127.0.0.1"} {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}

// NormalizeURL strips trailing slashes from the site URL.
func (c *Config) NormalizeURL() {
	c.URL = strings.TrimRight(c.URL, "/")
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables override existing values only if set and non-empty.
// Precedence: DMD_* → DISCOURSE_* → existing config value
func (c *Config) LoadFromEnv() {
	if url := getEnvWithFallback("DMD_URL", "DISCOURSE_URL"); url != "" {
		c.URL = url
	}
	if key := getEnvWithFallback("DMD_API_KEY", "DISCOURSE_API_KEY"); key != "" {
		c.APIKey = key
	}
	if user := getEnvWithFallback("DMD_API_USERNAME", "DISCOURSE_API_USERNAME"); user != "" {
		c.APIUsername = user
	}
	if lang := os.Getenv("DMD_DEFAULT_CODE_LANG"); lang != "" {
		c.DefaultCodeLang = lang
	}
	if v, ok := envBool("DMD_TYPOGRAPHER"); ok {
		c.Typographer = v
	}
	if v, ok := envBool("DMD_HIGHLIGHT_CODE"); ok {
		c.HighlightCode = v
	}
}

// getEnvWithFallback returns the value of the primary env var, or the fallback if primary is empty.
func getEnvWithFallback(primary, fallback string) string {
	if v := os.Getenv(primary); v != "" {
		return v
	}
	return os.Getenv(fallback)
}

// envBool reads a boolean env var. Unset or unparsable values report false.
func envBool(name string) (bool, bool) {
	v, err := strconv.ParseBool(os.Getenv(name))
	if err != nil {
		return false, false
	}
	return v, true
}

// RenderOptions maps the configuration onto cooker options.
func (c *Config) RenderOptions() md.Options {
	opts := md.DefaultOptions()
	opts.Typographer = c.Typographer
	opts.UnicodeUsernames = c.UnicodeUsernames
	opts.HighlightCode = c.HighlightCode
	opts.TraditionalLinebreaks = c.TraditionalLinebreaks
	if c.DefaultCodeLang != "" {
		opts.DefaultCodeLang = c.DefaultCodeLang
	}
	if len(c.HashtagTypes) > 0 {
		opts.HashtagTypesInPriorityOrder = append([]string(nil), c.HashtagTypes...)
	}
	opts.WatchedWordsReplace = copyWords(c.WatchedWords.Replace)
	opts.WatchedWordsLink = copyWords(c.WatchedWords.Link)
	return opts
}

func copyWords(words map[string]md.WatchedWord) map[string]md.WatchedWord {
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]md.WatchedWord, len(words))
	for k, v := range words {
		out[k] = v
	}
	return out
}

func sortedExprs(words map[string]md.WatchedWord) []string {
	exprs := make([]string, 0, len(words))
	for expr := range words {
		exprs = append(exprs, expr)
	}
	sort.Strings(exprs)
	return exprs
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	// Try XDG config directory first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dmd", "config.yml")
	}

	// Fall back to ~/.config/dmd/config.yml
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".dmd", "config.yml")
	}

	return filepath.Join(home, ".config", "dmd", "config.yml")
}

// ResolvePath returns path, or the default path when path is empty.
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	return DefaultConfigPath()
}

// Save writes the configuration to the specified path.
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with restricted permissions (user read/write only)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load reads the configuration from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnv loads configuration from file and overrides with environment
// variables. A missing file is an empty config; a malformed one is an error.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = &Config{}
	}

	cfg.LoadFromEnv()
	cfg.NormalizeURL()
	return cfg, nil
}
