package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/example/checkin-scheduler/internal/airports"
	"github.com/example/checkin-scheduler/internal/config"
	"github.com/example/checkin-scheduler/internal/db"
	"github.com/example/checkin-scheduler/internal/logging"
	"github.com/example/checkin-scheduler/internal/migrate"
	"github.com/example/checkin-scheduler/internal/scheduler"
	"github.com/example/checkin-scheduler/internal/southwest"
)

// deps is everything a command builds from the environment.
type deps struct {
	cfg   config.Config
	log   zerolog.Logger
	hc    *http.Client
	api   *southwest.Client
	zones *airports.Resolver
}

func loadDeps(stderr io.Writer) (*deps, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, stderr)
	hc := &http.Client{Timeout: cfg.HTTPTimeout}

	var creds southwest.CredentialProvider = southwest.ConfigScraper{URL: cfg.SouthwestConfigURL, HTTP: hc}
	if cfg.SouthwestAPIKey != "" {
		creds = southwest.StaticKey(cfg.SouthwestAPIKey)
	}

	return &deps{
		cfg: cfg,
		log: log,
		hc:  hc,
		api: southwest.New(creds, southwest.Options{
			BaseURL:       cfg.SouthwestBaseURL,
			HTTP:          hc,
			MaxAttempts:   cfg.RetryMaxAttempts,
			RetryInterval: cfg.RetryInterval,
			Log:           log.With().Str("component", "southwest").Logger(),
		}),
		zones: airports.New(cfg.AirportSearchURL, hc),
	}, nil
}

func (d *deps) scheduler(sink scheduler.Sink) *scheduler.Scheduler {
	margin := d.cfg.EarlyMargin
	return &scheduler.Scheduler{
		API:               d.api,
		Zones:             d.zones,
		Sink:              sink,
		EarlyMargin:       &margin,
		TooEarly:          d.cfg.TooEarly,
		SuperviseInterval: d.cfg.SuperviseInterval,
		Log:               d.log,
	}
}

// openStore connects and optionally migrates. The caller closes the DB.
func (d *deps) openStore(ctx context.Context, migrateUp bool) (*db.DB, error) {
	if d.cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	conn, err := db.Open(ctx, d.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if migrateUp {
		applied, err := migrate.Up(ctx, conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
		for _, v := range applied {
			d.log.Info().Str("version", v).Msg("applied migration")
		}
	}
	return conn, nil
}
