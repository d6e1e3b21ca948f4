package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chorushq/chorus/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify chorus configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/chorus/config.yaml
Project-specific overrides can be placed in .chorus.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("agent.binary: %s\n", cfg.Agent.Binary)
	fmt.Printf("agent.binary_path: %s\n", orUnset(cfg.Agent.BinaryPath))
	fmt.Printf("agent.api_key: %s\n", config.MaskAPIKey(cfg.Agent.APIKey))
	fmt.Printf("agent.workdir: %s\n", orUnset(cfg.Agent.Workdir))
	fmt.Printf("agent.model: %s\n", orUnset(cfg.Agent.Model))
	fmt.Printf("agent.watchdog_timeout: %s\n", cfg.Agent.WatchdogTimeout)
	fmt.Printf("speech.summarize: %t\n", cfg.Speech.Summarize)
	fmt.Printf("anthropic.api_key: %s\n", config.MaskAPIKey(cfg.Anthropic.APIKey))
	fmt.Printf("anthropic.model: %s\n", cfg.Anthropic.Model)
	fmt.Printf("anthropic.bedrock.enabled: %t\n", cfg.Anthropic.Bedrock.Enabled)
	fmt.Printf("anthropic.bedrock.region: %s\n", orUnset(cfg.Anthropic.Bedrock.Region))
	fmt.Printf("anthropic.bedrock.profile: %s\n", orUnset(cfg.Anthropic.Bedrock.Profile))
	fmt.Printf("store.enabled: %t\n", cfg.Store.Enabled)
	fmt.Printf("store.path: %s\n", orDefault(cfg.Store.Path, config.DefaultStorePath()))
	fmt.Printf("debug.enabled: %t\n", cfg.Debug.Enabled)
	fmt.Printf("debug.log_path: %s\n", orDefault(cfg.Debug.LogPath, config.DefaultDebugLogPath()))
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "agent.binary":
		return cfg.Agent.Binary, nil
	case "agent.binary_path":
		return orUnset(cfg.Agent.BinaryPath), nil
	case "agent.api_key":
		return config.MaskAPIKey(cfg.Agent.APIKey), nil
	case "agent.workdir":
		return orUnset(cfg.Agent.Workdir), nil
	case "agent.model":
		return orUnset(cfg.Agent.Model), nil
	case "agent.watchdog_timeout":
		return cfg.Agent.WatchdogTimeout.String(), nil
	case "speech.summarize":
		return strconv.FormatBool(cfg.Speech.Summarize), nil
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.bedrock.enabled":
		return strconv.FormatBool(cfg.Anthropic.Bedrock.Enabled), nil
	case "anthropic.bedrock.region":
		return orUnset(cfg.Anthropic.Bedrock.Region), nil
	case "anthropic.bedrock.profile":
		return orUnset(cfg.Anthropic.Bedrock.Profile), nil
	case "store.enabled":
		return strconv.FormatBool(cfg.Store.Enabled), nil
	case "store.path":
		return orDefault(cfg.Store.Path, config.DefaultStorePath()), nil
	case "debug.enabled":
		return strconv.FormatBool(cfg.Debug.Enabled), nil
	case "debug.log_path":
		return orDefault(cfg.Debug.LogPath, config.DefaultDebugLogPath()), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "agent.binary":
		cfg.Agent.Binary = value
	case "agent.binary_path":
		cfg.Agent.BinaryPath = value
	case "agent.api_key":
		cfg.Agent.APIKey = value
	case "agent.workdir":
		cfg.Agent.Workdir = value
	case "agent.model":
		cfg.Agent.Model = value
	case "agent.watchdog_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for watchdog_timeout: %w", err)
		}
		cfg.Agent.WatchdogTimeout = d
	case "speech.summarize":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for speech.summarize: %w", err)
		}
		cfg.Speech.Summarize = b
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.bedrock.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for bedrock.enabled: %w", err)
		}
		cfg.Anthropic.Bedrock.Enabled = b
	case "anthropic.bedrock.region":
		cfg.Anthropic.Bedrock.Region = value
	case "anthropic.bedrock.profile":
		cfg.Anthropic.Bedrock.Profile = value
	case "store.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for store.enabled: %w", err)
		}
		cfg.Store.Enabled = b
	case "store.path":
		cfg.Store.Path = value
	case "debug.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for debug.enabled: %w", err)
		}
		cfg.Debug.Enabled = b
	case "debug.log_path":
		cfg.Debug.LogPath = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
