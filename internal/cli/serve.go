package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"storefront/internal/config"
	"storefront/internal/jobs"
	applog "storefront/internal/log"
	"storefront/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load(envFiles()...)
		defer applog.TeeFile(cfg.LogFile).Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := server.Build(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if st.Pruner != nil {
			c, err := jobs.Start(cfg.PruneSchedule, st.Pruner, cfg.SessionTTL)
			if err != nil {
				return err
			}
			defer c.Stop()
			log.Printf("[jobs] session prune scheduled %q", cfg.PruneSchedule)
		}

		app := server.New(cfg, st.Services)
		go func() {
			<-ctx.Done()
			_ = app.Shutdown()
		}()
		log.Printf("[http] listening on :%s", cfg.Port)
		return app.Listen(":" + cfg.Port)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
