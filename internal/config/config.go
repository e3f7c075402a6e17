// Package config handles configuration for tacticscoach.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/diogo/tacticscoach/internal/models"
)

// EnvPrefix is prepended to every environment override, e.g. COACH_BASE_URL
const EnvPrefix = "COACH"

const (
	configDirName  = ".tacticscoach"
	configFileName = "config.json"
	logFileName    = "coach.log"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style" mapstructure:"style"`                           // "dark", "light", "notty", ...
	EnableEmoji      bool   `json:"enable_emoji" mapstructure:"enable_emoji"`             // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines" mapstructure:"preserve_newlines"`   // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap" mapstructure:"table_wrap"`                 // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links" mapstructure:"inline_table_links"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	BaseURL        string `json:"base_url" mapstructure:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	// ClientProfile names the TLS fingerprint used by the HTTP client.
	ClientProfile string `json:"client_profile" mapstructure:"client_profile"`
	// ShowThinking controls whether the reasoning block is printed/expanded.
	ShowThinking    bool `json:"show_thinking" mapstructure:"show_thinking"`
	CopyToClipboard bool `json:"copy_to_clipboard" mapstructure:"copy_to_clipboard"`
	// MaxFPS caps how often streamed snapshots are redrawn.
	MaxFPS     int            `json:"max_fps" mapstructure:"max_fps"`
	LogLevel   string         `json:"log_level" mapstructure:"log_level"`
	LogEnabled bool           `json:"log_enabled" mapstructure:"log_enabled"`
	TUITheme   string         `json:"tui_theme,omitempty" mapstructure:"tui_theme"` // TUI color theme
	Markdown   MarkdownConfig `json:"markdown" mapstructure:"markdown"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:         models.DefaultBaseURL,
		TimeoutSeconds:  300,
		ClientProfile:   "chrome_120",
		ShowThinking:    true,
		CopyToClipboard: false,
		MaxFPS:          30,
		LogLevel:        "info",
		LogEnabled:      true,
		TUITheme:        "pitch",
		Markdown:        DefaultMarkdownConfig(),
	}
}

// setDefaults registers every key with viper so env overrides and Set can find it.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("timeout_seconds", d.TimeoutSeconds)
	v.SetDefault("client_profile", d.ClientProfile)
	v.SetDefault("show_thinking", d.ShowThinking)
	v.SetDefault("copy_to_clipboard", d.CopyToClipboard)
	v.SetDefault("max_fps", d.MaxFPS)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_enabled", d.LogEnabled)
	v.SetDefault("tui_theme", d.TUITheme)

	v.SetDefault("markdown.style", d.Markdown.Style)
	v.SetDefault("markdown.enable_emoji", d.Markdown.EnableEmoji)
	v.SetDefault("markdown.preserve_newlines", d.Markdown.PreserveNewLines)
	v.SetDefault("markdown.table_wrap", d.Markdown.TableWrap)
	v.SetDefault("markdown.inline_table_links", d.Markdown.InlineTableLinks)
}

// Keys returns every configuration key, sorted
func Keys() []string {
	v := viper.New()
	setDefaults(v)
	keys := v.AllKeys()
	sort.Strings(keys)
	return keys
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, configDirName), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFileName), nil
}

// GetLogPath returns the path to the log file
func GetLogPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, logFileName), nil
}

// newViper builds a viper instance with defaults and the config file (if
// any). withEnv adds COACH_* environment overrides on top.
func newViper(withEnv bool) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if withEnv {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return v, err
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return v, nil // Use defaults if config doesn't exist
		}
		return v, fmt.Errorf("failed to parse config file: %w", err)
	}

	return v, nil
}

// LoadConfig loads the configuration from disk and the environment
func LoadConfig() (Config, error) {
	v, err := newViper(true)
	if err != nil {
		return DefaultConfig(), err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, configFileName)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SetValue updates a single key in the stored config. The value is given
// as text and converted to the key's type.
func SetValue(key, value string) (Config, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if !isKnownKey(key) {
		return Config{}, fmt.Errorf("unknown config key %q (available: %s)", key, strings.Join(Keys(), ", "))
	}

	// Environment overrides are per-process and must not leak into the file.
	v, err := newViper(false)
	if err != nil {
		return Config{}, err
	}
	v.Set(key, value)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, SaveConfig(cfg)
}

func isKnownKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// Validate checks values that would otherwise fail later at request time
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	if c.MaxFPS < 1 || c.MaxFPS > 120 {
		return fmt.Errorf("max_fps must be between 1 and 120, got %d", c.MaxFPS)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	return nil
}
