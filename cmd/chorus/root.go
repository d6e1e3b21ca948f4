package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chorus",
	Short: "Run and narrate parallel coding agents",
	Long: `Chorus runs cursor-agent processes in parallel, streams their output
as live captions, and arbitrates which finished agent announces its
result, one voice at a time.

Core capabilities:
- Spawns non-interactive agents with streamed JSON output
- Tracks per-agent status, captions, and touched files
- Queues completion announcements so agents never talk over each other
- Records sessions and transcripts for later review`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
