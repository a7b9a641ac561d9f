package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raaihank/logscrub/internal/identity"
	"github.com/raaihank/logscrub/internal/scrub"
)

var rulesUser identity.User

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Compile-check the configured rules and print their expanded patterns",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log, err := bootstrap()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			exitCode = ExitUsageError
			return
		}
		defer log.Sync()

		mapping, err := rulesUser.Resolve()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid identity: %v\n", err)
			exitCode = ExitUsageError
			return
		}

		compiled, err := scrub.Compile(cfg.Rules, mapping)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Rule compilation failed: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}

		for _, rule := range compiled {
			detectOnly := ""
			if rule.ReplaceTemplate == "" {
				detectOnly = "  (detection-only)"
			}
			fmt.Fprintf(os.Stdout, "%s: %s%s\n", rule.Key, rule.Detect.String(), detectOnly)
		}
	},
}

func init() {
	rulesCmd.Flags().StringVar(&rulesUser.Username, "username", "jdoe", "sample username to expand against")
	rulesCmd.Flags().StringVar(&rulesUser.TenantDomain, "tenant-domain", "carbon.super", "sample tenant domain")
	rulesCmd.Flags().IntVar(&rulesUser.TenantID, "tenant-id", 0, "sample tenant id")
	rulesCmd.Flags().StringVar(&rulesUser.UserstoreDomain, "userstore-domain", identity.PrimaryUserstoreDomain, "sample user-store domain")
	rulesCmd.Flags().StringVar(&rulesUser.Pseudonym, "pseudonym", "pseudonym", "sample pseudonym")
}
