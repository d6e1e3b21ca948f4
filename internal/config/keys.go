package config

import (
	"errors"
	"os"
	"strings"
)

// ErrNoAgentKey is returned when no agent API key is configured.
var ErrNoAgentKey = errors.New("no agent API key configured")

// ErrNoAnthropicKey is returned when no Anthropic API key is configured.
var ErrNoAnthropicKey = errors.New("no Anthropic API key configured")

// AgentAPIKey returns the API key passed to agent processes.
// It checks in order: environment variable, config file.
func AgentAPIKey(cfg *Config) (string, error) {
	if key := os.Getenv("CURSOR_API_KEY"); key != "" {
		return key, nil
	}

	if cfg != nil && cfg.Agent.APIKey != "" {
		key := os.ExpandEnv(cfg.Agent.APIKey)
		if key != "" && !strings.HasPrefix(key, "${") {
			return key, nil
		}
	}

	return "", ErrNoAgentKey
}

// AnthropicAPIKey returns the Anthropic API key used by the summarizer.
// It checks in order: environment variable, config file.
func AnthropicAPIKey(cfg *Config) (string, error) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key, nil
	}

	if cfg != nil && cfg.Anthropic.APIKey != "" {
		key := os.ExpandEnv(cfg.Anthropic.APIKey)
		if key != "" && !strings.HasPrefix(key, "${") {
			return key, nil
		}
	}

	return "", ErrNoAnthropicKey
}

// ValidateAnthropicKey performs basic validation on an Anthropic API key.
// It checks format but does not verify the key with Anthropic's API.
func ValidateAnthropicKey(key string) error {
	if key == "" {
		return ErrNoAnthropicKey
	}

	// Anthropic API keys start with "sk-ant-"
	if !strings.HasPrefix(key, "sk-ant-") {
		return errors.New("invalid API key format: expected 'sk-ant-' prefix")
	}

	if len(key) < 20 {
		return errors.New("invalid API key format: key too short")
	}

	return nil
}

// MaskAPIKey returns a masked version of an API key for display.
// Shows the first 7 characters and last 4 characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}

	if len(key) <= 15 {
		return "***"
	}

	return key[:7] + "..." + key[len(key)-4:]
}

// KeySource represents where an API key was loaded from.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config_file"
	KeySourceNone   KeySource = "none"
)

// AgentKeySource returns where the agent API key was sourced from.
func AgentKeySource(cfg *Config) KeySource {
	if os.Getenv("CURSOR_API_KEY") != "" {
		return KeySourceEnv
	}

	if cfg != nil && cfg.Agent.APIKey != "" {
		key := os.ExpandEnv(cfg.Agent.APIKey)
		if key != "" && !strings.HasPrefix(key, "${") {
			return KeySourceConfig
		}
	}

	return KeySourceNone
}

// AnthropicKeySource returns where the Anthropic API key was sourced from.
func AnthropicKeySource(cfg *Config) KeySource {
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return KeySourceEnv
	}

	if cfg != nil && cfg.Anthropic.APIKey != "" {
		key := os.ExpandEnv(cfg.Anthropic.APIKey)
		if key != "" && !strings.HasPrefix(key, "${") {
			return KeySourceConfig
		}
	}

	return KeySourceNone
}
