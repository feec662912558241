package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/user/chronicle/internal/engine"
	"github.com/user/chronicle/internal/ledger"
	"github.com/user/chronicle/internal/session"
	"github.com/user/chronicle/internal/state"
	"github.com/user/chronicle/internal/types"
)

var (
	runWorkspace string
	runThread    string
	runSpace     string
	runModel     string
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runWorkspace, "workspace", "", "workspace id (required)")
	runCmd.Flags().StringVar(&runThread, "thread", "", "thread id (required)")
	runCmd.Flags().StringVar(&runSpace, "space", "", "optional space id")
	runCmd.Flags().StringVar(&runModel, "model", "", "model name passed to the engine")
}

var runCmd = &cobra.Command{
	Use:   "run [prompt...]",
	Short: "Stream a prompt through an engine, recording the episode",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		scope := session.Scope{WorkspaceID: runWorkspace, ThreadID: runThread, SpaceID: runSpace}
		id, err := scope.SessionID()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		episodes := state.NewEpisodeStore(cfg.DataDir)
		loop := state.NewLedgerStore(cfg.DataDir)

		runID := types.NewRunID()
		rec := state.NewRecorder(episodes, id, runID, cfg.Persist)
		defer rec.Close()

		eng := engine.NewRegistry().Resolve(cfg.Engine)
		slog.Info("run starting", "session_id", string(id), "run_id", string(runID), "engine", eng.ID())

		emit := func(ev types.StreamEvent) {
			stamped := rec.Emit(ev)
			switch stamped.Type {
			case types.EventTextDelta:
				fmt.Print(stamped.Delta)
			case types.EventToolCall:
				// Tool calls are ledgered at emission so a crashed run can be
				// reconciled later.
				env := types.LoopEnvelope{
					RunID:          stamped.RunID,
					ToolCallID:     stamped.ToolCallID,
					ToolName:       stamped.ToolName,
					Args:           stamped.Args,
					IdempotencyKey: ledger.IdempotencyKey(id, stamped.ToolCallID),
					At:             stamped.At,
				}
				if err := loop.AppendCall(ctx, id, env); err != nil {
					slog.Error("ledger call append failed", "tool_call_id", string(stamped.ToolCallID), "error", err)
				}
			}
		}

		req := engine.Request{Model: runModel, Prompt: strings.Join(args, " ")}
		if err := eng.Stream(ctx, req, emit); err != nil {
			fmt.Fprintln(os.Stderr)
			return fmt.Errorf("run aborted: %w", err)
		}
		fmt.Println()
		return nil
	},
}
