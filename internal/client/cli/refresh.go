package cli

import "context"

func (c *Cli) RunRefresh(ctx context.Context) error {
	auth, err := c.sessions.Refresh(ctx)
	if err != nil {
		return err
	}

	c.io.Println("✓ Session refreshed")
	c.printExpiry("Access token expires", auth.AccessExpiresAt)
	return nil
}
