package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"storefront/internal/config"
	"storefront/internal/jobs"
	"storefront/internal/repos"
)

var pruneOlderThan time.Duration

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete idle session state from the SQLite store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load(envFiles()...)
		if cfg.RedisAddr != "" {
			fmt.Fprintln(cmd.OutOrStdout(), "session state is in redis; entries expire on their own")
			return nil
		}
		ttl := pruneOlderThan
		if ttl <= 0 {
			ttl = cfg.SessionTTL
		}

		db, err := repos.OpenDB(cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer db.Close()

		n, err := jobs.PruneOnce(context.Background(), repos.NewStateRepo(db), ttl, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d session entries idle for more than %s\n", n, ttl)
		return nil
	},
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "idle age to prune (default SESSION_TTL)")
	rootCmd.AddCommand(pruneCmd)
}
