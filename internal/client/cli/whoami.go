package cli

import (
	"context"
	"time"
)

func (c *Cli) RunWhoami(ctx context.Context) error {
	user, err := c.sessions.Whoami(ctx)
	if err != nil {
		return err
	}

	c.io.Printf("ID:        %s\n", user.ID)
	c.io.Printf("Username:  %s\n", user.Username)
	c.io.Printf("Email:     %s\n", user.Email)
	c.io.Printf("Full name: %s\n", user.FullName)
	c.io.Printf("Joined:    %s\n", user.CreatedAt.Format(time.RFC3339))
	return nil
}

func (c *Cli) RunChannel(ctx context.Context, username string) error {
	channel, err := c.sessions.Channel(ctx, username)
	if err != nil {
		return err
	}

	c.io.Printf("Channel:   %s\n", channel.Username)
	c.io.Printf("Full name: %s\n", channel.FullName)
	if channel.IsOwner {
		c.io.Println("This is your channel.")
	}
	return nil
}
