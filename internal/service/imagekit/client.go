package imagekit

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"piaxe-console/internal/domain"
	"piaxe-console/internal/service/apiclient"
)

// Client fetches upload credentials for direct ImageKit uploads. The
// private key stays on the backend.
type Client struct {
	r *apiclient.Requester
}

func NewClient(r *apiclient.Requester) *Client {
	return &Client{r: r}
}

func (c *Client) WithTokenSource(ts oauth2.TokenSource) *Client {
	return &Client{r: c.r.WithTokenSource(ts)}
}

// GetUploadAuth returns a signed token/expire/signature triple
func (c *Client) GetUploadAuth(ctx context.Context) (*domain.ImageKitAuth, error) {
	var auth domain.ImageKitAuth
	if err := c.r.Get(ctx, "/imagekit/auth/", nil, &auth); err != nil {
		return nil, fmt.Errorf("failed to get upload auth: %w", err)
	}
	if auth.Token == "" || auth.Signature == "" {
		return nil, errors.New("upload auth response is incomplete")
	}
	return &auth, nil
}
