package domain

import "time"

// Wallet is the balance summary of the current account
type Wallet struct {
	ID        string `json:"id"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	Available string `json:"available_balance,omitempty"`
	Pending   string `json:"pending_balance,omitempty"`
	IsFrozen  bool   `json:"is_frozen"`
}

// Transaction is one wallet ledger entry
type Transaction struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Amount      string     `json:"amount"`
	Currency    string     `json:"currency"`
	Reference   string     `json:"reference,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// TransactionFilter narrows ListTransactions
type TransactionFilter struct {
	Status string
	Type   string
	Page   int
	Limit  int
}

// Page wraps paginated list responses
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Product is an inventory item listed in a store
type Product struct {
	ID          string   `json:"id"`
	StoreID     string   `json:"store_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	SKU         string   `json:"sku,omitempty"`
	Price       string   `json:"price"`
	Currency    string   `json:"currency,omitempty"`
	Stock       int      `json:"stock"`
	IsActive    bool     `json:"is_active"`
	Images      []string `json:"images,omitempty"`
}

// CreateProductRequest adds a product to a store
type CreateProductRequest struct {
	StoreID     string   `json:"store_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	SKU         string   `json:"sku,omitempty"`
	Price       string   `json:"price"`
	Stock       int      `json:"stock"`
	Images      []string `json:"images,omitempty"`
}

// Ticket is a support ticket raised from the dashboard widget
type Ticket struct {
	ID        string          `json:"id"`
	Subject   string          `json:"subject"`
	Category  string          `json:"category,omitempty"`
	Priority  string          `json:"priority,omitempty"`
	Status    string          `json:"status"`
	Messages  []TicketMessage `json:"messages,omitempty"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
}

// TicketMessage is one message in a ticket thread
type TicketMessage struct {
	ID        string     `json:"id,omitempty"`
	Body      string     `json:"body"`
	FromStaff bool       `json:"from_staff"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// CreateTicketRequest opens a ticket
type CreateTicketRequest struct {
	Subject  string `json:"subject"`
	Category string `json:"category,omitempty"`
	Priority string `json:"priority,omitempty"`
	Message  string `json:"message"`
}

// ImageKitAuth are the short-lived parameters for a direct ImageKit upload
type ImageKitAuth struct {
	Token       string `json:"token"`
	Expire      int64  `json:"expire"`
	Signature   string `json:"signature"`
	PublicKey   string `json:"public_key,omitempty"`
	URLEndpoint string `json:"url_endpoint,omitempty"`
}
