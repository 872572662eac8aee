package cli

import (
	"context"
	"fmt"

	pkgapi "github.com/iudanet/vidtube/pkg/api"
)

// RegisterOptions are the values given as flags; missing ones are prompted for.
type RegisterOptions struct {
	Username string
	Email    string
	FullName string
}

func (c *Cli) RunRegister(ctx context.Context, opts RegisterOptions) error {
	c.io.Println("=== Register ===")

	var err error
	if opts.Username, err = c.readIfEmpty(opts.Username, "Username: "); err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	if opts.Email, err = c.readIfEmpty(opts.Email, "Email: "); err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}
	if opts.FullName, err = c.readIfEmpty(opts.FullName, "Full name: "); err != nil {
		return fmt.Errorf("failed to read full name: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	user, err := c.registrar.Register(ctx, pkgapi.RegisterRequest{
		Username: opts.Username,
		Email:    opts.Email,
		FullName: opts.FullName,
		Password: password,
	})
	if err != nil {
		return err
	}

	c.io.Println("✓ Registration successful!")
	c.io.Printf("User ID: %s\n", user.ID)
	c.io.Printf("Username: %s\n", user.Username)
	c.io.Println("Run 'vidtube login' to start a session.")
	return nil
}
