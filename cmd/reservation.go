package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/omnidine/internal/api"
	"github.com/example/omnidine/internal/auth"
	"github.com/example/omnidine/internal/config"
	"github.com/example/omnidine/internal/logging"
	"github.com/example/omnidine/internal/wizard"
)

func newReservationCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "reservation",
		Short: "Book and list table reservations (non-UI)",
	}
	cmd.PersistentFlags().StringVar(&email, "email", "", "account email")
	cmd.PersistentFlags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkPersistentFlagRequired("email")
	_ = cmd.MarkPersistentFlagRequired("password")

	cmd.AddCommand(newReservationCreateCmd(&email, &password))
	cmd.AddCommand(newReservationListCmd(&email, &password))
	cmd.AddCommand(newTablesCmd(&email, &password))
	return cmd
}

// cliSession logs in against the API and returns the client and identity.
func cliSession(ctx context.Context, email, password string) (config.Config, *api.Client, auth.Identity, error) {
	cfg, err := config.ClientFromEnv()
	if err != nil {
		return config.Config{}, nil, auth.Identity{}, err
	}
	client := api.New(cfg.APIBaseURL, cfg.APITimeout, logging.New(cfg.LogLevel, cfg.LogFormat))
	res, err := client.Login(ctx, email, password)
	if err != nil {
		return config.Config{}, nil, auth.Identity{}, fmt.Errorf("login: %w", err)
	}
	return cfg, client, auth.Identity{
		UserID:      res.User.ID,
		Name:        res.User.Name,
		Email:       res.User.Email,
		Role:        res.User.Role,
		AccessToken: res.AccessToken,
	}, nil
}

func newReservationCreateCmd(email, password *string) *cobra.Command {
	var (
		date    string
		hour    int
		tableID int64
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Reserve a table for a date and hour",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, client, ident, err := cliSession(ctx, *email, *password)
			if err != nil {
				return err
			}

			d, err := time.ParseInLocation(time.DateOnly, date, cfg.Location)
			if err != nil {
				return fmt.Errorf("invalid --date (want YYYY-MM-DD)")
			}

			w := wizard.New(client, wizard.WithLocation(cfg.Location), wizard.WithLayout(cfg.AppointmentLayout))
			if err := w.Start(ctx, ident.AccessToken); err != nil {
				return err
			}
			if err := w.SelectDate(d); err != nil {
				return err
			}
			if err := w.SelectTime(hour); err != nil {
				return err
			}
			if err := w.SelectResource(tableID); err != nil {
				return err
			}
			if err := w.Submit(ctx, ident); err != nil {
				if msg := w.SubmitError(); msg != "" {
					return fmt.Errorf("%s: %w", msg, err)
				}
				return err
			}

			r := w.Confirmation()
			fmt.Fprintf(os.Stdout, "created reservation id=%d table=%d appointment=%q status=%s\n",
				r.ID, r.TableID, r.AppointmentTime, r.Status)
			return nil
		},
	}

	c.Flags().StringVar(&date, "date", "", "reservation date YYYY-MM-DD (after today)")
	c.Flags().IntVar(&hour, "hour", 0, fmt.Sprintf("hour of day, %d-%d", wizard.OpenHour, wizard.CloseHour))
	c.Flags().Int64Var(&tableID, "table", 0, "table id (see 'reservation tables')")
	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("hour")
	_ = c.MarkFlagRequired("table")
	return c
}

func newReservationListCmd(email, password *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your reservations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, client, ident, err := cliSession(ctx, *email, *password)
			if err != nil {
				return err
			}
			rs, err := client.ListReservations(ctx, ident.AccessToken, ident.UserID)
			if err != nil {
				return err
			}
			for _, r := range rs {
				fmt.Fprintf(os.Stdout, "id=%d table=%d appointment=%q status=%s\n", r.ID, r.TableID, r.AppointmentTime, r.Status)
			}
			return nil
		},
	}
}

func newTablesCmd(email, password *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables and their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, client, ident, err := cliSession(ctx, *email, *password)
			if err != nil {
				return err
			}
			ts, err := client.ListTables(ctx, ident.AccessToken)
			if err != nil {
				return err
			}
			for _, t := range ts {
				fmt.Fprintf(os.Stdout, "id=%d seats=%d status=%s\n", t.ID, t.Seats, t.Status)
			}
			return nil
		},
	}
}
