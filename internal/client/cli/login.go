package cli

import (
	"context"
	"fmt"
)

func (c *Cli) RunLogin(ctx context.Context, identifier string) error {
	c.io.Println("=== Login ===")

	identifier, err := c.readIfEmpty(identifier, "Username or email: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	auth, err := c.sessions.Login(ctx, identifier, password)
	if err != nil {
		return err
	}

	c.io.Println("✓ Login successful!")
	c.io.Printf("Username: %s\n", auth.Username)
	c.printExpiry("Access token expires", auth.AccessExpiresAt)
	return nil
}
