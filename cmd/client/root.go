package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/iudanet/vidtube/internal/client/api"
	"github.com/iudanet/vidtube/internal/client/auth"
	"github.com/iudanet/vidtube/internal/client/cli"
	"github.com/iudanet/vidtube/internal/client/storage/boltdb"
	"github.com/iudanet/vidtube/internal/iocli"
	"github.com/iudanet/vidtube/internal/logging"
)

const (
	defaultServerURL = "http://localhost:8080"
	defaultDBPath    = "vidtube-client.db"
)

type clientState struct {
	io        iocli.IO
	logger    *slog.Logger
	serverURL string
	dbPath    string
	logLevel  string
}

func newRootCmd(term iocli.IO, lookup func(string) (string, bool)) *cobra.Command {
	rt := &clientState{
		io:        term,
		serverURL: defaultServerURL,
		dbPath:    defaultDBPath,
		logLevel:  "warn",
	}
	if v, ok := lookup("VIDTUBE_SERVER"); ok && v != "" {
		rt.serverURL = v
	}
	if v, ok := lookup("VIDTUBE_DB"); ok && v != "" {
		rt.dbPath = v
	}

	root := &cobra.Command{
		Use:           "vidtube",
		Short:         "vidtube command line client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(rt.logLevel, "text", os.Stderr)
			if err != nil {
				return err
			}
			rt.logger = logger
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&rt.serverURL, "server", rt.serverURL, "server URL (env VIDTUBE_SERVER)")
	flags.StringVar(&rt.dbPath, "db", rt.dbPath, "path to the local session database (env VIDTUBE_DB)")
	flags.StringVar(&rt.logLevel, "log-level", rt.logLevel, "log level: debug, info, warn, error")

	root.AddCommand(
		newRegisterCmd(rt),
		newLoginCmd(rt),
		newLogoutCmd(rt),
		newRefreshCmd(rt),
		newWhoamiCmd(rt),
		newChannelCmd(rt),
		newStatusCmd(rt),
		newVersionCmd(rt),
	)

	return root
}

// run opens the local database for the duration of one command.
func (rt *clientState) run(cmd *cobra.Command, fn func(ctx context.Context, c *cli.Cli) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := boltdb.New(ctx, rt.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			rt.logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	client := api.NewClient(rt.serverURL)
	sessions := auth.NewService(client, store, rt.logger)
	return fn(ctx, cli.New(rt.io, client, sessions))
}

func newRegisterCmd(rt *clientState) *cobra.Command {
	var opts cli.RegisterOptions

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, c *cli.Cli) error {
				return c.RunRegister(ctx, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Username, "username", "", "account username")
	cmd.Flags().StringVar(&opts.Email, "email", "", "account email")
	cmd.Flags().StringVar(&opts.FullName, "full-name", "", "display name")
	return cmd
}

func newLoginCmd(rt *clientState) *cobra.Command {
	return &cobra.Command{
		Use:   "login [username|email]",
		Short: "Log in and store the session locally",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var identifier string
			if len(args) == 1 {
				identifier = args[0]
			}
			return rt.run(cmd, func(ctx context.Context, c *cli.Cli) error {
				return c.RunLogin(ctx, identifier)
			})
		},
	}
}

func newLogoutCmd(rt *clientState) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and delete it locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, c *cli.Cli) error {
				return c.RunLogout(ctx)
			})
		},
	}
}

func newRefreshCmd(rt *clientState) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Rotate the stored token pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, c *cli.Cli) error {
				return c.RunRefresh(ctx)
			})
		},
	}
}

func newWhoamiCmd(rt *clientState) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account of the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, c *cli.Cli) error {
				return c.RunWhoami(ctx)
			})
		},
	}
}

func newChannelCmd(rt *clientState) *cobra.Command {
	return &cobra.Command{
		Use:   "channel <username>",
		Short: "Show a public channel profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, c *cli.Cli) error {
				return c.RunChannel(ctx, args[0])
			})
		},
	}
}

func newStatusCmd(rt *clientState) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the local session without contacting the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, c *cli.Cli) error {
				return c.RunStatus(ctx)
			})
		},
	}
}

func newVersionCmd(rt *clientState) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			rt.io.Printf("vidtube client\n")
			rt.io.Printf("Version:    %s\n", Version)
			rt.io.Printf("Build Date: %s\n", BuildDate)
			rt.io.Printf("Git Commit: %s\n", GitCommit)
		},
	}
}
