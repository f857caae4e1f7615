package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/example/omnidine/internal/api"
	"github.com/example/omnidine/internal/auth"
	"github.com/example/omnidine/internal/config"
	"github.com/example/omnidine/internal/logging"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage customer accounts",
	}
	cmd.AddCommand(newUserAddCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var f auth.SignupForm

	c := &cobra.Command{
		Use:   "add",
		Short: "Register a customer account through the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ClientFromEnv()
			if err != nil {
				return err
			}
			f.Confirm = f.Password
			if fe := f.Validate(); fe != nil {
				keys := make([]string, 0, len(fe))
				for k := range fe {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(os.Stderr, "--%s: %s\n", k, fe[k])
				}
				return fmt.Errorf("invalid account details")
			}

			client := api.New(cfg.APIBaseURL, cfg.APITimeout, logging.New(cfg.LogLevel, cfg.LogFormat))
			u, err := client.Signup(context.Background(), f.Request())
			if errors.Is(err, api.ErrConflict) {
				return auth.ErrEmailTaken
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "created user id=%d email=%q role=%s\n", u.ID, u.Email, u.Role)
			return nil
		},
	}

	c.Flags().StringVar(&f.Name, "name", "", "full name")
	c.Flags().StringVar(&f.Email, "email", "", "email address")
	c.Flags().StringVar(&f.Phone, "phone", "", "phone number (9-10 digits)")
	c.Flags().StringVar(&f.Password, "password", "", "password (at least 8 characters)")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("phone")
	_ = c.MarkFlagRequired("password")
	return c
}
