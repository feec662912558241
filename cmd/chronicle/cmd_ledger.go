package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/chronicle/internal/ledger"
	"github.com/user/chronicle/internal/state"
	"github.com/user/chronicle/internal/types"
)

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerVerifyCmd, ledgerReconcileCmd)
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Audit and repair the tool-loop ledger",
}

var ledgerVerifyCmd = &cobra.Command{
	Use:   "verify <session-id>",
	Short: "Check call/result pairing for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		store := state.NewLedgerStore(cfg.DataDir)
		envs, err := store.ReadAll(context.Background(), types.SessionID(args[0]))
		if err != nil {
			return fmt.Errorf("read ledger: %w", err)
		}

		if err := ledger.ValidateIntegrity(envs); err != nil {
			return fmt.Errorf("integrity check failed: %w", err)
		}
		fmt.Printf("OK: %d envelopes verified\n", len(envs))
		return nil
	},
}

var ledgerReconcileCmd = &cobra.Command{
	Use:   "reconcile <session-id> <transcript.json>",
	Short: "Append ledger results missing from a replayed transcript",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read transcript: %w", err)
		}
		var transcript []ledger.TranscriptMessage
		if err := json.Unmarshal(data, &transcript); err != nil {
			return fmt.Errorf("parse transcript: %w", err)
		}

		store := state.NewLedgerStore(cfg.DataDir)
		res, err := ledger.Reconcile(context.Background(), store, types.SessionID(args[0]), transcript, time.Now().UnixMilli())
		if err != nil {
			return fmt.Errorf("reconcile: %w", err)
		}

		fmt.Printf("appended=%d duplicates=%d missing_calls=%d\n", res.Appended, res.Duplicates, res.MissingCalls)
		return nil
	},
}
