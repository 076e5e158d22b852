package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/oauth2"

	"piaxe-console/internal/domain"
	"piaxe-console/internal/service/apiclient"
)

// Client calls the wallet endpoints
type Client struct {
	r *apiclient.Requester
}

func NewClient(r *apiclient.Requester) *Client {
	return &Client{r: r}
}

func (c *Client) WithTokenSource(ts oauth2.TokenSource) *Client {
	return &Client{r: c.r.WithTokenSource(ts)}
}

// GetWallet returns the wallet of the current account
func (c *Client) GetWallet(ctx context.Context) (*domain.Wallet, error) {
	var w domain.Wallet
	if err := c.r.Get(ctx, "/wallet/", nil, &w); err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &w, nil
}

// ListTransactions returns one page of the wallet ledger
func (c *Client) ListTransactions(ctx context.Context, filter domain.TransactionFilter) (*domain.Page[domain.Transaction], error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.Type != "" {
		q.Set("type", filter.Type)
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	var raw json.RawMessage
	if err := c.r.Get(ctx, "/wallet/transactions/", q, &raw); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	items, err := apiclient.DecodeList[domain.Transaction](raw)
	if err != nil {
		return nil, err
	}

	page := &domain.Page[domain.Transaction]{Items: items, Page: filter.Page, Limit: filter.Limit, Total: len(items)}
	var meta struct {
		Count *int `json:"count"`
		Total *int `json:"total"`
	}
	if json.Unmarshal(raw, &meta) == nil {
		switch {
		case meta.Total != nil:
			page.Total = *meta.Total
		case meta.Count != nil:
			page.Total = *meta.Count
		}
	}
	return page, nil
}
