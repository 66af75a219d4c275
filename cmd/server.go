package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/checkin-scheduler/internal/auth"
	"github.com/example/checkin-scheduler/internal/outcomes"
	"github.com/example/checkin-scheduler/internal/scheduler"
	"github.com/example/checkin-scheduler/internal/web"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve the push trigger endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var sink scheduler.Sink
			if d.cfg.DatabaseURL != "" {
				conn, err := d.openStore(ctx, migrateUp)
				if err != nil {
					return err
				}
				defer conn.Close()
				sink = outcomes.NewRepo(conn)
			} else {
				d.log.Warn().Msg("DATABASE_URL not set, outcomes will not be recorded")
			}

			ws := &web.Server{Log: d.log}
			if d.cfg.TriggerTokenHash == "" {
				d.log.Warn().Msg("TRIGGER_TOKEN_HASH not set, /trigger is disabled")
			} else {
				bearer, err := auth.NewBearer(d.cfg.TriggerTokenHash)
				if err != nil {
					return err
				}
				ws.Auth = bearer.Require
				ws.Runner = d.scheduler(sink)
			}

			return web.Start(ctx, d.cfg.ListenAddr, ws.Routes(), d.log)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")

	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
