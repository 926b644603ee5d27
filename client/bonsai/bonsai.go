// Package bonsai provides the high-level client for the Bonsai API.
package bonsai

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mhkc/bonsai-libs/client"
	schema "github.com/mhkc/bonsai-libs/schemas/bonsai"
)

// Client is a high-level interface to the Bonsai API.
type Client struct {
	api   *client.Client
	token string
}

// New wraps a core client pointing at the Bonsai API.
func New(api *client.Client) *Client {
	return &Client{api: api}
}

// tokenResponse is the body of a successful POST /token.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login authenticates with username and password and installs the
// returned bearer token on the underlying client. It returns false
// without error when the credentials were rejected.
func (c *Client) Login(ctx context.Context, username, password string) (bool, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var resp tokenResponse
	err := c.api.PostForm(ctx, "token", form, &resp)
	if errors.Is(err, client.ErrUnauthorized) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("authenticate user %s: %w", username, err)
	}

	if !strings.EqualFold(resp.TokenType, "bearer") || resp.AccessToken == "" {
		return false, fmt.Errorf("unexpected token response: type=%q", resp.TokenType)
	}
	c.api.SetAuth(client.BearerToken{Token: resp.AccessToken})
	c.token = resp.AccessToken
	return true, nil
}

// Token returns the bearer token obtained by the last successful
// Login, for persisting between CLI invocations.
func (c *Client) Token() string {
	return c.token
}

// CreateSample creates a new sample in Bonsai.
func (c *Client) CreateSample(ctx context.Context, sample schema.SampleInput) (schema.CreateSampleResponse, error) {
	sample.Normalize()
	if err := sample.Validate(); err != nil {
		return schema.CreateSampleResponse{}, err
	}
	var resp schema.CreateSampleResponse
	if err := c.api.Post(ctx, "samples/", sample, &resp); err != nil {
		return schema.CreateSampleResponse{}, fmt.Errorf("create sample: %w", err)
	}
	return resp, nil
}
