package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/user/chronicle/internal/retention"
	"github.com/user/chronicle/internal/session"
	"github.com/user/chronicle/internal/state"
	"github.com/user/chronicle/internal/types"
)

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd, sessionTailCmd, sessionSnapshotsCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect stored sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		ids, err := session.ListSessions(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(ids) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		episodes := state.NewEpisodeStore(cfg.DataDir)
		ledgerStore := state.NewLedgerStore(cfg.DataDir)
		ctx := context.Background()

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tEVENTS\tPARSE ERRORS\tLEDGER ENTRIES")
		for _, id := range ids {
			events, parseErrors, err := episodes.ReadAll(ctx, id)
			if err != nil {
				return fmt.Errorf("read episodes for %s: %w", id, err)
			}
			envs, err := ledgerStore.ReadAll(ctx, id)
			if err != nil {
				return fmt.Errorf("read ledger for %s: %w", id, err)
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", id, len(events), parseErrors, len(envs))
		}
		return w.Flush()
	},
}

var sessionTailCmd = &cobra.Command{
	Use:   "tail <session-id> [count]",
	Short: "Show the last events of a session",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		limit := 20
		if len(args) == 2 {
			if _, err := fmt.Sscanf(args[1], "%d", &limit); err != nil || limit < 1 {
				return fmt.Errorf("invalid count: %s", args[1])
			}
		}

		episodes := state.NewEpisodeStore(cfg.DataDir)
		events, parseErrors, err := episodes.ReadAll(context.Background(), types.SessionID(args[0]))
		if err != nil {
			return fmt.Errorf("read episodes: %w", err)
		}
		if len(events) > limit {
			events = events[len(events)-limit:]
		}

		for _, ev := range events {
			line := fmt.Sprintf("%s seq=%d run=%s", ev.Type, ev.Seq, ev.RunID)
			switch ev.Type {
			case types.EventTextDelta:
				line += fmt.Sprintf(" delta=%q", ev.Delta)
			case types.EventToolCall:
				line += fmt.Sprintf(" tool=%s call=%s", ev.ToolName, ev.ToolCallID)
			case types.EventError:
				line += fmt.Sprintf(" error=%q retryable=%t", ev.Error, ev.Retryable)
			}
			fmt.Println(line)
		}
		if parseErrors > 0 {
			fmt.Printf("(%d malformed lines skipped)\n", parseErrors)
		}
		return nil
	},
}

var sessionSnapshotsCmd = &cobra.Command{
	Use:   "snapshots <session-id>",
	Short: "Show a session's compaction summaries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		summaries, err := retention.ReadSummaries(cfg.DataDir, types.SessionID(args[0]))
		if err != nil {
			return fmt.Errorf("read snapshots: %w", err)
		}
		if len(summaries) == 0 {
			fmt.Println("No snapshots found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RANGE\tEVENTS\tRUNS\tTOOL CALLS\tDELTA CHARS")
		for _, s := range summaries {
			toolCalls := 0
			for _, n := range s.Stats.ToolCalls {
				toolCalls += n
			}
			rangeLabel := "-"
			if len(s.SourceFiles) > 0 {
				first := strings.TrimSuffix(s.SourceFiles[0], ".jsonl")
				last := strings.TrimSuffix(s.SourceFiles[len(s.SourceFiles)-1], ".jsonl")
				rangeLabel = first + ".." + last
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", rangeLabel, s.Stats.Events, s.Stats.Runs, toolCalls, s.Stats.DeltaChars)
		}
		return w.Flush()
	},
}
