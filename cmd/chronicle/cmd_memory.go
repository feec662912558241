package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/chronicle/internal/state"
	"github.com/user/chronicle/internal/types"
)

func init() {
	rootCmd.AddCommand(memoryCmd)
	memoryCmd.AddCommand(memoryAddCmd, memoryListCmd)
}

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Manage long-term session notes",
}

var memoryAddCmd = &cobra.Command{
	Use:   "add <session-id> <slug> <content>",
	Short: "Write a dated note for a session",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		store := state.NewMemoryStore(cfg.DataDir)
		path, err := store.PutNote(context.Background(), types.SessionID(args[0]), args[1], args[2], time.Now().UnixMilli())
		if err != nil {
			return fmt.Errorf("write note: %w", err)
		}
		fmt.Println(path)
		return nil
	},
}

var memoryListCmd = &cobra.Command{
	Use:   "list <session-id>",
	Short: "List a session's notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		store := state.NewMemoryStore(cfg.DataDir)
		notes, err := store.ListNotes(context.Background(), types.SessionID(args[0]))
		if err != nil {
			return fmt.Errorf("list notes: %w", err)
		}
		if len(notes) == 0 {
			fmt.Println("No notes found.")
			return nil
		}
		for _, name := range notes {
			fmt.Println(name)
		}
		return nil
	},
}
