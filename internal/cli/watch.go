package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/raaihank/logscrub/internal/config"
	"github.com/raaihank/logscrub/internal/spool"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Process anonymization requests from a spool directory",
	Long: "Watch runs logscrub as a long-lived worker: every JSON request file dropped\n" +
		"into the configured spool directory triggers one full redaction run for the\n" +
		"user and files it names.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log, err := bootstrap()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			exitCode = ExitUsageError
			return
		}
		defer log.Sync()

		// Rule changes apply to requests handled after the reload; a
		// request in flight keeps the rules it compiled with.
		var mu sync.Mutex
		current := cfg
		if err := config.Watch(cfg, func(newCfg *config.Config) {
			mu.Lock()
			current = newCfg
			mu.Unlock()
			log.Info("Configuration reloaded", zap.Int("rules", len(newCfg.Rules)))
		}); err != nil {
			log.Error("Failed to watch configuration", zap.Error(err))
		}

		handler := func(ctx context.Context, req spool.Request) error {
			mu.Lock()
			reqCfg := current
			mu.Unlock()
			return runRequest(ctx, reqCfg, log, req.User, req.Files)
		}

		watcher := spool.NewWatcher(cfg.Spool, handler, log)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.Info("Starting spool worker", zap.String("dir", cfg.Spool.Dir))
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("Spool worker failed", zap.Error(err))
			exitCode = ExitRuntimeError
			return
		}
		log.Info("Spool worker stopped")
	},
}
