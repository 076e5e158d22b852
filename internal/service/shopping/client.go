package shopping

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"

	"piaxe-console/internal/domain"
	"piaxe-console/internal/service/apiclient"
)

// Client calls the inventory endpoints
type Client struct {
	r *apiclient.Requester
}

func NewClient(r *apiclient.Requester) *Client {
	return &Client{r: r}
}

func (c *Client) WithTokenSource(ts oauth2.TokenSource) *Client {
	return &Client{r: c.r.WithTokenSource(ts)}
}

// ListProducts lists the products of a store
func (c *Client) ListProducts(ctx context.Context, storeID string) ([]domain.Product, error) {
	q := url.Values{}
	if storeID != "" {
		q.Set("store_id", storeID)
	}
	var raw json.RawMessage
	if err := c.r.Get(ctx, "/shopping/products/", q, &raw); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return apiclient.DecodeList[domain.Product](raw)
}

// CreateProduct adds a product to a store
func (c *Client) CreateProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	var p domain.Product
	if err := c.r.Post(ctx, "/shopping/products/", req, &p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &p, nil
}

// UpdateStock sets the stock level of a product
func (c *Client) UpdateStock(ctx context.Context, productID string, stock int) (*domain.Product, error) {
	if stock < 0 {
		return nil, fmt.Errorf("stock must not be negative, got %d", stock)
	}
	var p domain.Product
	body := map[string]int{"stock": stock}
	if err := c.r.Patch(ctx, "/shopping/products/"+url.PathEscape(productID)+"/stock/", body, &p); err != nil {
		return nil, fmt.Errorf("failed to update stock for %s: %w", productID, err)
	}
	return &p, nil
}
