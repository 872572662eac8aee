package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/vidtube/internal/client/auth"
)

// RunStatus prints the local session without contacting the server.
func (c *Cli) RunStatus(ctx context.Context) error {
	c.io.Println("=== Authentication Status ===")

	session, err := c.sessions.Current(ctx)
	if errors.Is(err, auth.ErrNotAuthenticated) {
		c.io.Println("Status: Not authenticated")
		c.io.Println("Run 'vidtube login' to authenticate.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check authentication: %w", err)
	}

	now := time.Now()
	if session.RefreshExpired(now) {
		c.io.Println("Status: Session expired")
		c.io.Println("Run 'vidtube login' to authenticate.")
		return nil
	}

	c.io.Println("Status: Authenticated")
	c.io.Printf("Username: %s\n", session.Username)
	c.printExpiry("Access token expires", session.AccessExpiresAt)
	c.printExpiry("Session expires", session.RefreshExpiresAt)
	if session.AccessExpired(now) {
		c.io.Println("Access token has expired and will be refreshed on the next request.")
	}
	return nil
}

func (c *Cli) printExpiry(label string, unix int64) {
	if unix == 0 {
		return
	}
	c.io.Printf("%s: %s\n", label, time.Unix(unix, 0).Format(time.RFC3339))
}
