// Package notification provides the client for the Bonsai notification
// service.
package notification

import (
	"context"
	"fmt"

	"github.com/mhkc/bonsai-libs/client"
	schema "github.com/mhkc/bonsai-libs/schemas/notification"
)

// Client sends emails through the notification service.
type Client struct {
	api *client.Client
}

// New wraps a core client pointing at the notification service.
func New(api *client.Client) *Client {
	return &Client{api: api}
}

// SendEmail validates and submits an email for delivery.
func (c *Client) SendEmail(ctx context.Context, email schema.EmailCreate) error {
	email.Normalize()
	if err := email.Validate(); err != nil {
		return err
	}
	if err := c.api.Post(ctx, "send-email", email, nil); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
