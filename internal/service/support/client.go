package support

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"

	"piaxe-console/internal/domain"
	"piaxe-console/internal/service/apiclient"
)

// Client calls the support ticket endpoints
type Client struct {
	r *apiclient.Requester
}

func NewClient(r *apiclient.Requester) *Client {
	return &Client{r: r}
}

func (c *Client) WithTokenSource(ts oauth2.TokenSource) *Client {
	return &Client{r: c.r.WithTokenSource(ts)}
}

// CreateTicket opens a new ticket
func (c *Client) CreateTicket(ctx context.Context, req domain.CreateTicketRequest) (*domain.Ticket, error) {
	if req.Subject == "" || req.Message == "" {
		return nil, errors.New("ticket subject and message are required")
	}
	var t domain.Ticket
	if err := c.r.Post(ctx, "/support/tickets/", req, &t); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return &t, nil
}

// ListTickets lists tickets raised by the current account
func (c *Client) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	var raw json.RawMessage
	if err := c.r.Get(ctx, "/support/tickets/", nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return apiclient.DecodeList[domain.Ticket](raw)
}

// GetTicket fetches a ticket with its thread
func (c *Client) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	var t domain.Ticket
	if err := c.r.Get(ctx, "/support/tickets/"+url.PathEscape(id)+"/", nil, &t); err != nil {
		return nil, fmt.Errorf("failed to get ticket %s: %w", id, err)
	}
	return &t, nil
}

// AddMessage appends a message to a ticket thread
func (c *Client) AddMessage(ctx context.Context, ticketID, body string) (*domain.TicketMessage, error) {
	var m domain.TicketMessage
	req := domain.TicketMessage{Body: body}
	if err := c.r.Post(ctx, "/support/tickets/"+url.PathEscape(ticketID)+"/messages/", req, &m); err != nil {
		return nil, fmt.Errorf("failed to add message to ticket %s: %w", ticketID, err)
	}
	return &m, nil
}
