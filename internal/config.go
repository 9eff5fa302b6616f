package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	pkgconfig "github.com/starford/ansuz/pkg/config"
)

// Environment variables honoured regardless of the config file.
const (
	EnvVaultPath         = "OBSIDIAN_VAULT"
	EnvAIRoot            = "OBSIDIAN_AI_ROOT"
	EnvSummarizerCommand = "ANSUZ_SUMMARIZER"
	EnvLogLevel          = "ANSUZ_LOG_LEVEL"
)

// DefaultAIRoot is the vault subtree that holds exported conversations.
const DefaultAIRoot = "AI"

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Vault      VaultConfig       `yaml:"vault"`
	Index      IndexConfig       `yaml:"index"`
	Summarizer SummarizerConfig  `yaml:"summarizer"`
	Audit      AuditConfig       `yaml:"audit"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	return c.Summarizer.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// VaultConfig holds the location of the Markdown vault and the subtree
// inside it that this tool owns.
type VaultConfig struct {
	Path   string `yaml:"path"`
	AIRoot string `yaml:"ai_root"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required.Error(fmt.Sprintf("vault path is required (set %s)", EnvVaultPath))),
		validation.Field(&c.AIRoot, validation.Required),
	)
}

// IndexConfig holds the session index database configuration. The index is
// an optimisation only; Disabled turns it off entirely.
type IndexConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

// SummarizerConfig holds the external title summarizer configuration.
// An empty Command disables summarization; titles then fall back to a
// slug of the first user message.
type SummarizerConfig struct {
	Command        string `yaml:"command"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Validate validates the summarizer configuration.
func (c *SummarizerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TimeoutSeconds, validation.Min(0)),
	)
}

// Timeout returns the summarizer timeout as a duration.
func (c *SummarizerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AuditConfig controls the raw payload audit trail kept under _raw/.
type AuditConfig struct {
	Disabled bool `yaml:"disabled"`
}

// IndexPath returns the session index database location, defaulting to a
// dotdir inside the managed subtree.
func (c *Config) IndexPath() string {
	if c.Index.Path != "" {
		return c.Index.Path
	}
	return filepath.Join(c.Vault.Path, filepath.FromSlash(c.Vault.AIRoot), ".ansuz", "index.db")
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Vault: VaultConfig{
			AIRoot: DefaultAIRoot,
		},
		Summarizer: SummarizerConfig{
			Command:        "codex",
			TimeoutSeconds: 60,
		},
	}
}

// ApplyEnv overlays environment variables onto the configuration.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvVaultPath); v != "" {
		c.Vault.Path = v
	}
	if v := os.Getenv(EnvAIRoot); v != "" {
		c.Vault.AIRoot = v
	}
	if v := os.Getenv(EnvSummarizerCommand); v != "" {
		c.Summarizer.Command = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			c.App.LogLevel = lvl
		}
	}
}

// LoadConfig builds the effective configuration: defaults, then environment
// variables, then the config file when one exists at configPath. The file is
// optional since the tool usually runs as a hook with env-only setup.
func LoadConfig(configPath string) (*Config, error) {
	cfg := NewDefaultConfig()
	cfg.ApplyEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := pkgconfig.Load(configPath, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
			return cfg, nil
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
