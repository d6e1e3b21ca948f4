package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chorushq/chorus/internal/config"
	"github.com/chorushq/chorus/internal/locate"
	"github.com/chorushq/chorus/internal/state"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that chorus can run agents on this machine",
	Long: `Verify the pieces chorus depends on:
  - the agent executable (cursor-agent) is installed and resolvable
  - API keys for the agent and for spoken summaries
  - the working directory and history store are usable`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	failed := false

	resolver := locate.NewResolver(cfg.Agent.Binary, cfg.Agent.BinaryPath)
	if path, rerr := resolver.Resolve(); rerr != nil {
		failed = true
		printStatus("✗", fmt.Sprintf("%s not found", binaryDisplayName(cfg)), color.FgRed)
		fmt.Println("\n  Chorus drives the Cursor agent CLI. Install it with:")
		fmt.Println("    curl https://cursor.com/install -fsS | bash")
		fmt.Println("  or point chorus at an executable:")
		fmt.Println("    chorus config agent.binary_path /path/to/cursor-agent")
		fmt.Println()
	} else {
		printStatus("✓", fmt.Sprintf("%s found at %s", binaryDisplayName(cfg), path), color.FgGreen)
	}

	if key, kerr := config.AgentAPIKey(cfg); kerr != nil {
		printStatus("⚠", "agent API key not set (CURSOR_API_KEY); the agent may require login", color.FgYellow)
	} else {
		printStatus("✓", fmt.Sprintf("agent API key %s (%s)", config.MaskAPIKey(key), config.AgentKeySource(cfg)), color.FgGreen)
	}

	if !cfg.Speech.Summarize {
		printStatus("⚠", "summaries disabled; announcements use caption tails", color.FgYellow)
	} else if cfg.Anthropic.Bedrock.Enabled {
		printStatus("✓", fmt.Sprintf("summaries via AWS Bedrock (region %s)", cfg.Anthropic.Bedrock.Region), color.FgGreen)
	} else if key, kerr := config.AnthropicAPIKey(cfg); kerr != nil {
		printStatus("⚠", "no Anthropic API key; announcements use caption tails", color.FgYellow)
	} else if verr := config.ValidateAnthropicKey(key); verr != nil {
		printStatus("⚠", fmt.Sprintf("Anthropic API key looks wrong: %v", verr), color.FgYellow)
	} else {
		printStatus("✓", fmt.Sprintf("Anthropic API key %s (%s)", config.MaskAPIKey(key), config.AnthropicKeySource(cfg)), color.FgGreen)
	}

	workdir := cfg.Agent.Workdir
	if workdir == "" {
		workdir, _ = os.Getwd()
	}
	if info, serr := os.Stat(workdir); serr != nil || !info.IsDir() {
		failed = true
		printStatus("✗", fmt.Sprintf("working directory %s is not usable", workdir), color.FgRed)
	} else {
		printStatus("✓", fmt.Sprintf("working directory %s", workdir), color.FgGreen)
	}

	if !cfg.Store.Enabled {
		printStatus("⚠", "history store disabled", color.FgYellow)
	} else {
		storePath := cfg.Store.Path
		if storePath == "" {
			storePath = config.DefaultStorePath()
		}
		if db, serr := state.Open(storePath); serr != nil {
			failed = true
			printStatus("✗", fmt.Sprintf("history store unusable at %s: %v", storePath, serr), color.FgRed)
		} else {
			sessions, _ := db.RecentSessions(0)
			db.Close()
			printStatus("✓", fmt.Sprintf("history store at %s (%d recent sessions)", storePath, len(sessions)), color.FgGreen)
		}
	}

	if failed {
		return fmt.Errorf("doctor found problems")
	}
	fmt.Printf("\n%s chorus is ready\n", color.GreenString("✓"))
	return nil
}

func binaryDisplayName(cfg *config.Config) string {
	if cfg.Agent.Binary != "" {
		return cfg.Agent.Binary
	}
	return locate.DefaultBinary
}

// printStatus prints a colored status symbol followed by a message.
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
