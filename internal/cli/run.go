package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/raaihank/logscrub/internal/config"
	"github.com/raaihank/logscrub/internal/identity"
	"github.com/raaihank/logscrub/internal/logger"
	"github.com/raaihank/logscrub/internal/report"
	"github.com/raaihank/logscrub/internal/scrub"
)

var runUser identity.User

var runCmd = &cobra.Command{
	Use:   "run [files...]",
	Short: "Redact one user's PII from the given log files",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log, err := bootstrap()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			exitCode = ExitUsageError
			return
		}
		defer log.Sync()

		if err := runRequest(cmd.Context(), cfg, log, runUser, args); err != nil {
			log.Error("Run failed", zap.Error(err))
			exitCode = ExitRuntimeError
		}
	},
}

func init() {
	runCmd.Flags().StringVar(&runUser.Username, "username", "", "username to redact")
	runCmd.Flags().StringVar(&runUser.TenantDomain, "tenant-domain", "carbon.super", "tenant domain of the user")
	runCmd.Flags().IntVar(&runUser.TenantID, "tenant-id", 0, "tenant id of the user")
	runCmd.Flags().StringVar(&runUser.UserstoreDomain, "userstore-domain", identity.PrimaryUserstoreDomain, "user-store domain of the user")
	runCmd.Flags().StringVar(&runUser.Pseudonym, "pseudonym", "", "replacement token substituted for matched PII")
}

// runRequest drives one full pipeline invocation: report sink, compile,
// process, optional finalize. Shared by the run command and the spool daemon.
func runRequest(ctx context.Context, cfg *config.Config, log *logger.Logger, user identity.User, files []string) (retErr error) {
	sink, err := report.NewFileAppender(cfg.Scrub.ReportPath)
	if err != nil {
		return err
	}
	// Buffered report writes surface their errors at Close; an audit report
	// that failed to persist must fail the whole request.
	defer func() {
		if err := sink.Close(); err != nil && retErr == nil {
			retErr = err
		}
	}()

	pipeline, err := scrub.New(user, cfg.Rules, sink, scrub.Options{
		LinesPerSecond: cfg.Scrub.LinesPerSecond,
	}, log.WithComponent("scrub"))
	if err != nil {
		return err
	}

	results, err := pipeline.Process(ctx, files)
	if err != nil {
		return err
	}

	if cfg.Scrub.Finalize {
		for _, result := range results {
			if err := scrub.ReplaceOriginal(result); err != nil {
				return err
			}
		}
		log.Info("Originals replaced with rewritten copies", zap.Int("files", len(results)))
	} else {
		for _, result := range results {
			log.Info("Rewritten copy ready",
				zap.String("source", result.Source),
				zap.String("temp", result.Temp),
			)
		}
	}

	return nil
}
