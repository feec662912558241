package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/user/chronicle/internal/retention"
)

func init() {
	rootCmd.AddCommand(retentionCmd)
	retentionCmd.AddCommand(retentionRunCmd, retentionWatchCmd)
}

var retentionCmd = &cobra.Command{
	Use:   "retention",
	Short: "Compact and prune session storage",
}

var retentionRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one retention pass now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		engine := retention.NewEngine(cfg.MaxConcurrent)
		counters, err := engine.Run(context.Background(), cfg.DataDir, time.Now().UnixMilli(), cfg.Policy())
		if err != nil {
			return fmt.Errorf("retention run: %w", err)
		}

		fmt.Printf("sessions=%d snapshots=%d compacted=%d deleted: episodes=%d ledger=%d snapshots=%d memory=%d\n",
			counters.SessionsScanned,
			counters.SnapshotsWritten,
			counters.EpisodesCompacted,
			counters.EpisodesDeleted,
			counters.LedgerDeleted,
			counters.SnapshotsDeleted,
			counters.MemoryDeleted,
		)
		return nil
	},
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

var retentionWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Trigger retention on the configured cron schedule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		scheduler := retention.NewScheduler(retention.NewEngine(cfg.MaxConcurrent))
		trigger := func() {
			ran, _, err := scheduler.MaybeRun(ctx, cfg.DataDir, time.Now().UnixMilli(), cfg.IntervalMS(), cfg.Policy())
			if err != nil {
				slog.Error("retention run failed", "error", err)
				return
			}
			if !ran {
				slog.Debug("retention trigger skipped by scheduler gate")
			}
		}

		c := cron.New(cron.WithParser(cronParser))
		if _, err := c.AddFunc(cfg.Retention.CronSpec, trigger); err != nil {
			return fmt.Errorf("invalid cron spec %q: %w", cfg.Retention.CronSpec, err)
		}
		c.Start()
		defer c.Stop()

		slog.Info("retention watcher started",
			"data_dir", cfg.DataDir,
			"cron_spec", cfg.Retention.CronSpec,
			"interval_minutes", cfg.Retention.IntervalMinutes,
		)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		slog.Info("shutting down")
		return nil
	},
}
