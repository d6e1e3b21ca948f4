package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chorushq/chorus/internal/config"
	"github.com/chorushq/chorus/internal/crew"
	"github.com/chorushq/chorus/internal/orchestrator"
	"github.com/chorushq/chorus/internal/signals"
	"github.com/chorushq/chorus/internal/state"
	"github.com/chorushq/chorus/internal/summary"
	"github.com/chorushq/chorus/pkg/models"
)

var (
	runCrewFile  string
	runWorkdir   string
	runModel     string
	runBinary    string
	runDebug     bool
	runNoStore   bool
	runNoSummary bool
)

var runCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Run one or more agents and narrate their progress",
	Long: `Run agents against a prompt or a crew manifest.

With a prompt argument, one agent is spawned and its captions stream to
the terminal as they arrive. With --crew, every agent in the manifest is
spawned and progress is shown as labeled status lines instead of raw
captions.

Finished agents take turns announcing their result; the announcement is
an LLM summary of the agent's output when an Anthropic key is
configured, and the tail of its captions otherwise.

While running, drop files into <workdir>/.chorus/signals to steer the
fleet: dismiss-<id>, interrupt-<id>, say-<id>, or shutdown.

Examples:
  chorus run "fix the failing auth tests"
  chorus run --crew crew.yaml
  chorus run --debug --no-store "update the README"`,
	Args: cobra.ArbitraryArgs,
	RunE: runAgents,
}

func init() {
	runCmd.Flags().StringVar(&runCrewFile, "crew", "", "Launch agents from a crew manifest (YAML)")
	runCmd.Flags().StringVar(&runWorkdir, "workdir", "", "Working directory for agent processes")
	runCmd.Flags().StringVar(&runModel, "model", "", "Model passed to the agent CLI")
	runCmd.Flags().StringVar(&runBinary, "binary", "", "Path to the agent executable")
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "Write a debug log")
	runCmd.Flags().BoolVar(&runNoStore, "no-store", false, "Skip recording session history")
	runCmd.Flags().BoolVar(&runNoSummary, "no-summary", false, "Speak caption tails instead of LLM summaries")
}

func runAgents(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && runCrewFile == "" {
		return fmt.Errorf("provide a prompt or --crew <file>")
	}
	if len(args) > 0 && runCrewFile != "" {
		return fmt.Errorf("--crew and a prompt argument are mutually exclusive")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	workdir := runWorkdir
	if workdir == "" {
		workdir = cfg.Agent.Workdir
	}
	if workdir == "" {
		workdir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
	}

	model := runModel
	if model == "" {
		model = cfg.Agent.Model
	}
	binaryPath := runBinary
	if binaryPath == "" {
		binaryPath = cfg.Agent.BinaryPath
	}

	agentKey, _ := config.AgentAPIKey(cfg)
	ocfg := orchestrator.Config{
		BinaryPath:      binaryPath,
		BinaryName:      cfg.Agent.Binary,
		APIKey:          agentKey,
		WorkDir:         workdir,
		Model:           model,
		WatchdogTimeout: cfg.Agent.WatchdogTimeout,
	}

	cons := newConsole(runCrewFile == "")
	opts := []orchestrator.Option{orchestrator.WithCallbacks(cons.callbacks())}

	if cfg.Store.Enabled && !runNoStore {
		storePath := cfg.Store.Path
		if storePath == "" {
			storePath = config.DefaultStorePath()
		}
		db, serr := state.Open(storePath)
		if serr != nil {
			printWarn(fmt.Sprintf("history store unavailable: %v", serr))
		} else {
			defer db.Close()
			opts = append(opts, orchestrator.WithStore(db))
		}
	}

	if cfg.Speech.Summarize && !runNoSummary {
		anthropicKey, keyErr := config.AnthropicAPIKey(cfg)
		if keyErr != nil && !cfg.Anthropic.Bedrock.Enabled {
			printWarn("no Anthropic key; announcements fall back to caption tails")
		} else {
			s, serr := summary.New(summary.Config{
				Model:         anthropic.Model(cfg.Anthropic.Model),
				APIKey:        anthropicKey,
				UseAWSBedrock: cfg.Anthropic.Bedrock.Enabled,
				AWSRegion:     cfg.Anthropic.Bedrock.Region,
				AWSProfile:    cfg.Anthropic.Bedrock.Profile,
			})
			if serr != nil {
				printWarn(fmt.Sprintf("summarizer unavailable: %v", serr))
			} else {
				opts = append(opts, orchestrator.WithSummarizer(s))
			}
		}
	}

	if runDebug || cfg.Debug.Enabled {
		logPath := cfg.Debug.LogPath
		if logPath == "" {
			logPath = config.DefaultDebugLogPath()
		}
		logger, lerr := orchestrator.NewDebugLogger(logPath)
		if lerr != nil {
			printWarn(fmt.Sprintf("debug log unavailable: %v", lerr))
		} else {
			defer logger.Close()
			opts = append(opts, orchestrator.WithLogger(logger))
			fmt.Printf("Debug log: %s\n", logPath)
		}
	}

	orch := orchestrator.New(ocfg, opts...)
	defer orch.Dispose()
	cons.bind(orch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nReceived interrupt, shutting down...")
		cancel()
	}()

	watcher, werr := signals.New(workdir, func(sig signals.Signal) {
		switch sig.Action {
		case signals.ActionDismiss:
			if orch.DismissAgent(sig.AgentID) {
				cons.markExited(sig.AgentID)
				cons.event(sig.AgentID, "dismissed")
			}
		case signals.ActionInterrupt:
			orch.InterruptAgent(sig.AgentID)
		case signals.ActionSay:
			orch.QueueToSpeak(sig.AgentID)
		case signals.ActionShutdown:
			fmt.Println("\nShutdown signal received, shutting down...")
			cancel()
		}
	})
	if werr != nil {
		printWarn(fmt.Sprintf("signal watcher unavailable: %v", werr))
	} else {
		defer watcher.Close()
	}

	if runCrewFile != "" {
		manifest, merr := crew.Load(runCrewFile)
		if merr != nil {
			return fmt.Errorf("load crew: %w", merr)
		}
		for _, spec := range manifest.Agents {
			id, serr := orch.SpawnAgentIn(spec.Dir, spec.Prompt)
			if serr != nil {
				printWarn(fmt.Sprintf("spawn %s: %v", spec.Name, serr))
				continue
			}
			cons.register(id, spec.Name)
			fmt.Printf("%s %s started (%s)\n", color.GreenString("▶"), spec.Name, id)
		}
		if cons.spawnedCount() == 0 {
			return fmt.Errorf("no agents could be spawned")
		}
	} else {
		prompt := strings.Join(args, " ")
		id, serr := orch.SpawnAgent(prompt)
		if serr != nil {
			return serr
		}
		cons.register(id, "agent")
		fmt.Printf("%s agent started (%s)\n", color.GreenString("▶"), id)
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if cons.allExited() && orch.CurrentlySpeaking() == "" && len(orch.SpeakingQueue()) == 0 {
				cons.breakCaption()
				fmt.Printf("%s all agents finished\n", color.GreenString("✓"))
				return nil
			}
		}
	}
}

// console renders orchestrator callbacks as terminal lines and tracks
// which agents have reached a terminal state.
type console struct {
	mu          sync.Mutex
	names       map[string]string
	exited      map[string]bool
	spawned     int
	streaming   bool
	captionOpen bool
	finish      func()
}

func newConsole(streaming bool) *console {
	return &console{
		names:     make(map[string]string),
		exited:    make(map[string]bool),
		streaming: streaming,
	}
}

// bind attaches the orchestrator whose speaking slot the console releases
// after printing each announcement. Must be called before any spawn.
func (c *console) bind(orch *orchestrator.Orchestrator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finish = orch.FinishSpeaking
}

func (c *console) register(id, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[id] = name
	c.spawned++
}

func (c *console) markExited(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exited[id] = true
}

func (c *console) spawnedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spawned
}

func (c *console) allExited() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spawned > 0 && len(c.exited) >= c.spawned
}

// labelLocked returns the crew name for an agent, or the random tail of
// its ID.
func (c *console) labelLocked(id string) string {
	if name := c.names[id]; name != "" {
		return name
	}
	if i := strings.LastIndex(id, "-"); i >= 0 && i+1 < len(id) {
		return id[i+1:]
	}
	return id
}

// breakCaption terminates a caption line left open by streamed deltas so
// the next status line starts at column zero.
func (c *console) breakCaption() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.breakCaptionLocked()
}

func (c *console) breakCaptionLocked() {
	if c.captionOpen {
		fmt.Println()
		c.captionOpen = false
	}
}

func (c *console) event(id, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.breakCaptionLocked()
	fmt.Printf("%s %s\n", color.CyanString("[%s]", c.labelLocked(id)), message)
}

func (c *console) callbacks() orchestrator.Callbacks {
	return orchestrator.Callbacks{
		OnCaption: func(id, delta string) {
			if !c.streaming {
				return
			}
			c.mu.Lock()
			defer c.mu.Unlock()
			fmt.Print(delta)
			c.captionOpen = !strings.HasSuffix(delta, "\n")
		},
		OnStatusChange: func(id string, status models.AgentStatus) {
			c.event(id, statusText(status))
		},
		OnModelInfo: func(id, model string) {
			c.event(id, color.New(color.Faint).Sprintf("model %s", model))
		},
		OnToolActivity: func(id, tool, path string) {
			if path == "" {
				c.event(id, color.New(color.Faint).Sprint(tool))
				return
			}
			c.event(id, color.New(color.Faint).Sprintf("%s %s", tool, path))
		},
		OnComplete: func(id string, duration time.Duration) {
			c.event(id, fmt.Sprintf("finished in %s", duration.Round(100*time.Millisecond)))
		},
		OnStartSpeaking: func(id, text string) {
			c.mu.Lock()
			c.breakCaptionLocked()
			fmt.Printf("%s %s %s\n", color.GreenString("♪"), color.CyanString("[%s]", c.labelLocked(id)), text)
			finish := c.finish
			c.mu.Unlock()
			// No TTS here: the printed line is the announcement, so the
			// slot frees immediately and the next agent may speak.
			if finish != nil {
				finish()
			}
		},
		OnError: func(id, message string) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.breakCaptionLocked()
			label := "chorus"
			if id != "" {
				label = c.labelLocked(id)
			}
			fmt.Fprintf(os.Stderr, "%s %s %s\n", color.RedString("✗"), color.CyanString("[%s]", label), message)
		},
		OnProcessExit: func(id string, err error) {
			c.markExited(id)
		},
	}
}

func statusText(status models.AgentStatus) string {
	switch status {
	case models.AgentStatusWorking:
		return color.YellowString(string(status))
	case models.AgentStatusReporting:
		return color.GreenString(string(status))
	case models.AgentStatusListening:
		return color.CyanString(string(status))
	default:
		return string(status)
	}
}

func printWarn(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.YellowString("⚠"), message)
}
