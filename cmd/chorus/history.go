package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chorushq/chorus/internal/config"
	"github.com/chorushq/chorus/internal/state"
)

var (
	historyLimit     int
	historyOlderThan time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse recorded agent sessions",
	Long: `List, inspect, and prune the session history store.

Without arguments, lists recent sessions. Use 'history show <id>' for a
session's transcript and touched files, and 'history purge' to delete
old sessions.`,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show one session's transcript and file activity",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete sessions older than a cutoff",
	RunE:  runHistoryPurge,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of sessions to list")
	historyPurgeCmd.Flags().DurationVar(&historyOlderThan, "older-than", 30*24*time.Hour, "Delete sessions older than this")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPurgeCmd)
}

func openHistoryStore() (*state.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	path := cfg.Store.Path
	if path == "" {
		path = config.DefaultStorePath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("no history yet (store would live at %s)", path)
	}
	db, err := state.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return db, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	db, err := openHistoryStore()
	if err != nil {
		return err
	}
	defer db.Close()

	sessions, err := db.RecentSessions(historyLimit)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions recorded. Run 'chorus run <prompt>' to start one.")
		return nil
	}

	for _, s := range sessions {
		fmt.Printf("%s  %s  %s  %s\n",
			s.ID,
			statusBadge(s.Status),
			formatAge(time.Since(s.StartedAt)),
			truncate(s.Prompt, 60))
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	db, err := openHistoryStore()
	if err != nil {
		return err
	}
	defer db.Close()

	id := args[0]
	s, err := db.Session(id)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		return fmt.Errorf("no session %q", id)
	}

	fmt.Printf("Session: %s\n", s.ID)
	fmt.Printf("  Status: %s\n", statusBadge(s.Status))
	fmt.Printf("  Started: %s (%s ago)\n", s.StartedAt.Local().Format("2006-01-02 15:04:05"), formatAge(time.Since(s.StartedAt)))
	if s.Model != "" {
		fmt.Printf("  Model: %s\n", s.Model)
	}
	if s.Duration > 0 {
		fmt.Printf("  Duration: %s\n", s.Duration.Round(100*time.Millisecond))
	}
	if s.Respawns > 0 {
		fmt.Printf("  Follow-ups: %d\n", s.Respawns)
	}
	fmt.Printf("  Prompt: %s\n", s.Prompt)

	if followUps, err := db.FollowUps(id); err == nil && len(followUps) > 0 {
		fmt.Println("\nFollow-up prompts:")
		for _, f := range followUps {
			fmt.Printf("  - %s\n", truncate(f.Prompt, 70))
		}
	}

	if touches, err := db.FileTouches(id); err == nil && len(touches) > 0 {
		fmt.Println("\nFiles:")
		for _, ft := range touches {
			fmt.Printf("  %-8s %s\n", ft.Kind, ft.Path)
		}
	}

	transcript, err := db.Transcript(id)
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}
	if strings.TrimSpace(transcript) != "" {
		fmt.Println("\nTranscript:")
		fmt.Println(transcript)
	}
	return nil
}

func runHistoryPurge(cmd *cobra.Command, args []string) error {
	db, err := openHistoryStore()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.PurgeSessions(historyOlderThan)
	if err != nil {
		return fmt.Errorf("purge sessions: %w", err)
	}
	fmt.Printf("Deleted %d sessions older than %s.\n", n, historyOlderThan)
	return nil
}

func statusBadge(status state.SessionStatus) string {
	switch status {
	case state.SessionCompleted:
		return color.GreenString("%-9s", string(status))
	case state.SessionDismissed:
		return color.YellowString("%-9s", string(status))
	default:
		return color.CyanString("%-9s", string(status))
	}
}

// formatAge renders a duration the way humans say it.
func formatAge(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dd", int(d.Hours())/24)
}

func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
