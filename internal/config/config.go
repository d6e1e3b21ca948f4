// Package config handles configuration loading and management for Chorus.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Chorus.
type Config struct {
	Agent     AgentConfig     `mapstructure:"agent"`
	Speech    SpeechConfig    `mapstructure:"speech"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Store     StoreConfig     `mapstructure:"store"`
	Debug     DebugConfig     `mapstructure:"debug"`
}

// AgentConfig holds settings for the headless agent processes.
type AgentConfig struct {
	// Binary is the executable name searched on PATH and in well-known
	// locations.
	Binary string `mapstructure:"binary"`
	// BinaryPath points directly at the executable, bypassing resolution.
	BinaryPath string `mapstructure:"binary_path"`
	// APIKey is exported to agent processes as CURSOR_API_KEY.
	APIKey string `mapstructure:"api_key"`
	// Workdir pins the working directory of agent processes.
	Workdir string `mapstructure:"workdir"`
	// Model is forwarded to the agent CLI when set.
	Model string `mapstructure:"model"`
	// WatchdogTimeout is how long a fresh process may stay silent before
	// it is reported as unresponsive.
	WatchdogTimeout time.Duration `mapstructure:"watchdog_timeout"`
}

// SpeechConfig holds speaking-queue settings.
type SpeechConfig struct {
	// Summarize enables LLM refinement of queued speak lines.
	Summarize bool `mapstructure:"summarize"`
}

// AnthropicConfig holds Anthropic API settings for the summarizer.
type AnthropicConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Bedrock BedrockConfig `mapstructure:"bedrock"`
}

// BedrockConfig routes summarizer calls through AWS Bedrock instead of the
// Anthropic API.
type BedrockConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

// StoreConfig holds session history settings.
type StoreConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Path is the SQLite database location. Empty means the default under
	// the user data directory.
	Path string `mapstructure:"path"`
}

// DebugConfig holds debug logging settings.
type DebugConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// LogPath overrides the default debug log location.
	LogPath string `mapstructure:"log_path"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (CURSOR_API_KEY, ANTHROPIC_API_KEY)
// 2. Project config (.chorus.yaml in current directory or parent)
// 3. User config (~/.config/chorus/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Project config takes precedence over the user config.
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("agent.api_key", "CURSOR_API_KEY")
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Agent.APIKey = expandEnv(cfg.Agent.APIKey)
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Agent.APIKey = expandEnv(cfg.Agent.APIKey)
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("agent.binary", cfg.Agent.Binary)
	v.Set("agent.binary_path", cfg.Agent.BinaryPath)
	v.Set("agent.api_key", cfg.Agent.APIKey)
	v.Set("agent.workdir", cfg.Agent.Workdir)
	v.Set("agent.model", cfg.Agent.Model)
	v.Set("agent.watchdog_timeout", cfg.Agent.WatchdogTimeout.String())
	v.Set("speech.summarize", cfg.Speech.Summarize)
	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.bedrock.enabled", cfg.Anthropic.Bedrock.Enabled)
	v.Set("anthropic.bedrock.region", cfg.Anthropic.Bedrock.Region)
	v.Set("anthropic.bedrock.profile", cfg.Anthropic.Bedrock.Profile)
	v.Set("store.enabled", cfg.Store.Enabled)
	v.Set("store.path", cfg.Store.Path)
	v.Set("debug.enabled", cfg.Debug.Enabled)
	v.Set("debug.log_path", cfg.Debug.LogPath)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// DefaultStorePath returns the default location of the session history
// database.
func DefaultStorePath() string {
	return filepath.Join(getUserDataDir(), "history.db")
}

// DefaultDebugLogPath returns the default location of the debug log.
func DefaultDebugLogPath() string {
	return filepath.Join(getUserDataDir(), "debug.log")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("agent.binary", "cursor-agent")
	v.SetDefault("agent.binary_path", "")
	v.SetDefault("agent.api_key", "")
	v.SetDefault("agent.workdir", "")
	v.SetDefault("agent.model", "")
	v.SetDefault("agent.watchdog_timeout", "10s")

	v.SetDefault("speech.summarize", true)

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("anthropic.bedrock.enabled", false)
	v.SetDefault("anthropic.bedrock.region", "")
	v.SetDefault("anthropic.bedrock.profile", "")

	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", "")

	v.SetDefault("debug.enabled", false)
	v.SetDefault("debug.log_path", "")
}

// getUserConfigDir returns the XDG config directory for Chorus.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "chorus")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "chorus")
	}
	return filepath.Join(home, ".config", "chorus")
}

// getUserDataDir returns the XDG data directory for Chorus.
func getUserDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "chorus")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".local", "share", "chorus")
	}
	return filepath.Join(home, ".local", "share", "chorus")
}

// findProjectConfig searches for .chorus.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".chorus.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			Binary:          "cursor-agent",
			WatchdogTimeout: 10 * time.Second,
		},
		Speech: SpeechConfig{
			Summarize: true,
		},
		Anthropic: AnthropicConfig{
			Model: "claude-3-5-haiku-latest",
		},
		Store: StoreConfig{
			Enabled: true,
		},
	}
}
