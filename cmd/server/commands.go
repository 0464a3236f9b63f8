package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/media-request-tracker/internal/config"
	"github.com/sandeepkv93/media-request-tracker/internal/database"
	"github.com/sandeepkv93/media-request-tracker/internal/di"
)

type rootOptions struct {
	envFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "media-request-tracker",
		Short:         "Track book, movie and TV show requests",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "KEY=VALUE file exported before config is read")

	cmd.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newUserCommand(opts),
	)
	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFile(o.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, cleanup, err := di.InitializeApp(ctx, cfg)
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			defer cleanup()
			return a.Run(ctx)
		},
	}
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			cfg.DBAutoMigrate = false
			db, cleanup, err := di.InitializeDatabase(cfg)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := database.Migrate(db); err != nil {
				return err
			}
			cmd.Println("schema up to date")
			return nil
		},
	}
}

func newUserCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts from the command line",
	}

	var admin bool
	create := &cobra.Command{
		Use:   "create <username> <password>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(cmd.Context(), opts, func(ctx context.Context, users userAdmin) error {
				u, err := users.Create(ctx, args[0], args[1], admin)
				if err != nil {
					return err
				}
				cmd.Printf("created user %q (id %d, admin %t)\n", u.Username, u.ID, u.IsAdmin)
				return nil
			})
		},
	}
	create.Flags().BoolVar(&admin, "admin", false, "grant admin privileges")

	setPassword := &cobra.Command{
		Use:   "set-password <username> <password>",
		Short: "Replace an account's password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(cmd.Context(), opts, func(ctx context.Context, users userAdmin) error {
				if err := users.SetPasswordByUsername(ctx, args[0], args[1]); err != nil {
					return err
				}
				cmd.Printf("password updated for %q\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(create, setPassword)
	return cmd
}
