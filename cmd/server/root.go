package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iudanet/vidtube/internal/crypto"
	"github.com/iudanet/vidtube/internal/iocli"
	"github.com/iudanet/vidtube/internal/logging"
	"github.com/iudanet/vidtube/internal/server"
	"github.com/iudanet/vidtube/internal/server/account"
	"github.com/iudanet/vidtube/internal/server/config"
)

type cliState struct {
	cfg    *config.Config
	logger *slog.Logger
	io     iocli.IO
}

func newRootCmd(term iocli.IO, lookup func(string) (string, bool)) *cobra.Command {
	rt := &cliState{cfg: config.LoadDefaults(), io: term}
	envErr := rt.cfg.ApplyEnv(lookup)

	root := &cobra.Command{
		Use:           "vidtube-server",
		Short:         "vidtube authentication server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return fmt.Errorf("environment: %w", envErr)
			}
			logger, err := logging.New(rt.cfg.LogLevel, rt.cfg.LogFormat, os.Stderr)
			if err != nil {
				return err
			}
			rt.logger = logger
			return nil
		},
	}

	rt.cfg.BindFlags(root.PersistentFlags())

	root.AddCommand(
		newServeCmd(rt),
		newMigrateCmd(rt),
		newUserAddCmd(rt),
		newVersionCmd(rt),
	)

	return root
}

func newServeCmd(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := server.OpenStore(ctx, rt.cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}

			app, err := server.NewApp(rt.cfg, rt.logger, store, Version)
			if err != nil {
				_ = store.Close()
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					rt.logger.Error("failed to close app", slog.Any("error", err))
				}
			}()

			rt.logger.Info("starting vidtube server",
				slog.String("version", Version),
				slog.String("db_driver", rt.cfg.DBDriver))

			return app.Run(ctx)
		},
	}
}

func newMigrateCmd(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := server.OpenStore(cmd.Context(), rt.cfg)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			rt.logger.Info("migrations applied", slog.String("db_driver", rt.cfg.DBDriver))
			return store.Close()
		},
	}
}

func newUserAddCmd(rt *cliState) *cobra.Command {
	var username, email, fullName string

	cmd := &cobra.Command{
		Use:   "useradd",
		Short: "Create an account, prompting for missing fields and the password",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var err error
			if username, err = promptIfEmpty(rt.io, username, "Username: "); err != nil {
				return err
			}
			if email, err = promptIfEmpty(rt.io, email, "Email: "); err != nil {
				return err
			}
			if fullName, err = promptIfEmpty(rt.io, fullName, "Full name: "); err != nil {
				return err
			}

			password, err := rt.io.ReadPassword("Password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			confirm, err := rt.io.ReadPassword("Confirm password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}

			store, err := server.OpenStore(ctx, rt.cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer func() { _ = store.Close() }()

			accounts := account.New(rt.logger, store, crypto.NewPasswordHasher(rt.cfg.BcryptCost))
			user, err := accounts.Register(ctx, account.RegisterInput{
				Username: username,
				Email:    email,
				FullName: fullName,
				Password: password,
			})
			if err != nil {
				return err
			}

			rt.io.Printf("Created user %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name")

	return cmd
}

func newVersionCmd(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			rt.io.Printf("vidtube server\n")
			rt.io.Printf("Version:    %s\n", Version)
			rt.io.Printf("Build Date: %s\n", BuildDate)
			rt.io.Printf("Git Commit: %s\n", GitCommit)
		},
	}
}

func promptIfEmpty(term iocli.IO, value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	v, err := term.ReadInput(prompt)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", prompt, err)
	}
	return v, nil
}
