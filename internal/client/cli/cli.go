// Package cli implements the commands of the vidtube command line client.
package cli

import (
	"context"

	"github.com/iudanet/vidtube/internal/client/auth"
	"github.com/iudanet/vidtube/internal/client/storage"
	"github.com/iudanet/vidtube/internal/iocli"
	pkgapi "github.com/iudanet/vidtube/pkg/api"
)

// Registrar creates accounts. It needs no session.
type Registrar interface {
	Register(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.User, error)
}

// Sessions is what the commands need from the session service.
type Sessions interface {
	Login(ctx context.Context, identifier, password string) (*storage.AuthData, error)
	Refresh(ctx context.Context) (*storage.AuthData, error)
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) (*pkgapi.User, error)
	Channel(ctx context.Context, username string) (*pkgapi.ChannelResponse, error)
	Current(ctx context.Context) (*storage.AuthData, error)
}

var _ Sessions = (*auth.Service)(nil)

type Cli struct {
	io        iocli.IO
	registrar Registrar
	sessions  Sessions
}

func New(io iocli.IO, registrar Registrar, sessions Sessions) *Cli {
	return &Cli{
		io:        io,
		registrar: registrar,
		sessions:  sessions,
	}
}

// readIfEmpty prompts for value unless it was given on the command line.
func (c *Cli) readIfEmpty(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	return c.io.ReadInput(prompt)
}
