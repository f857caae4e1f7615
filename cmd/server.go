package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/omnidine/internal/api"
	"github.com/example/omnidine/internal/auth"
	"github.com/example/omnidine/internal/cart"
	"github.com/example/omnidine/internal/config"
	"github.com/example/omnidine/internal/crypto"
	"github.com/example/omnidine/internal/db"
	"github.com/example/omnidine/internal/events"
	"github.com/example/omnidine/internal/janitor"
	"github.com/example/omnidine/internal/logging"
	"github.com/example/omnidine/internal/migrate"
	"github.com/example/omnidine/internal/web"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			logger := logging.New(cfg.LogLevel, cfg.LogFormat)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}

			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}

			sealer, err := crypto.New(cfg.TokenSealKey)
			if err != nil {
				return err
			}
			client := api.New(cfg.APIBaseURL, cfg.APITimeout, logger)
			authStore := auth.NewStore(auth.NewPGRepo(d), sealer, client, cfg.CookieHashKey, cfg.CookieBlockKey, cfg.SessionTTL, logger)
			carts := cart.NewPGRepo(d)

			var pub events.Publisher = events.Nop{}
			if cfg.NATSURL != "" {
				np, err := events.NewNATSPublisher(cfg.NATSURL)
				if err != nil {
					return fmt.Errorf("nats: %w", err)
				}
				pub = np
			}
			notifier := events.NewNotifier(pub, logger)
			defer notifier.Close()

			// web
			ws := &web.Server{
				Auth:     authStore,
				API:      client,
				Carts:    carts,
				Events:   notifier,
				Logger:   logger,
				Location: cfg.Location,
				Layout:   cfg.AppointmentLayout,
			}
			h := ws.Routes()

			// janitor
			j := &janitor.Janitor{
				Sessions: authStore,
				Carts:    carts,
				CartTTL:  cfg.CartTTL,
				Flows:    ws,
				FlowTTL:  cfg.FlowTTL,
				Interval: cfg.JanitorInterval,
				Logger:   logger,
			}
			go func() { _ = j.Run(ctx) }()

			return web.Start(ctx, cfg.ListenAddr, h, logger)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")

	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
