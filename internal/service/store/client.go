package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"

	"piaxe-console/internal/domain"
	"piaxe-console/internal/service/apiclient"
)

// Client calls the store endpoints
type Client struct {
	r *apiclient.Requester
}

// NewClient creates a store client over a shared requester
func NewClient(r *apiclient.Requester) *Client {
	return &Client{r: r}
}

// WithToken returns a client authenticated with a fixed access token
func (c *Client) WithToken(accessToken string) *Client {
	return &Client{r: c.r.WithToken(accessToken)}
}

// WithTokenSource returns a client authenticated through ts
func (c *Client) WithTokenSource(ts oauth2.TokenSource) *Client {
	return &Client{r: c.r.WithTokenSource(ts)}
}

// ListStores returns the stores owned by the current account
func (c *Client) ListStores(ctx context.Context) ([]domain.Store, error) {
	var raw json.RawMessage
	if err := c.r.Get(ctx, "/stores/", nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	return apiclient.DecodeList[domain.Store](raw)
}

// GetStore fetches one store
func (c *Client) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	var s domain.Store
	if err := c.r.Get(ctx, "/stores/"+url.PathEscape(id)+"/", nil, &s); err != nil {
		return nil, fmt.Errorf("failed to get store %s: %w", id, err)
	}
	return &s, nil
}

// CreateStore creates a store for the current account
func (c *Client) CreateStore(ctx context.Context, req domain.CreateStoreRequest) (*domain.Store, error) {
	var s domain.Store
	if err := c.r.Post(ctx, "/stores/", req, &s); err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	return &s, nil
}

// UpdateStore applies a partial update
func (c *Client) UpdateStore(ctx context.Context, id string, req domain.UpdateStoreRequest) (*domain.Store, error) {
	var s domain.Store
	if err := c.r.Patch(ctx, "/stores/"+url.PathEscape(id)+"/", req, &s); err != nil {
		return nil, fmt.Errorf("failed to update store %s: %w", id, err)
	}
	return &s, nil
}
