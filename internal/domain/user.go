package domain

import "time"

// UserProfile is the account record returned by the profile endpoint
type UserProfile struct {
	ID               string            `json:"id"`
	AccountID        string            `json:"account_id"`
	Username         string            `json:"username"`
	FirstName        string            `json:"first_name,omitempty"`
	LastName         string            `json:"last_name,omitempty"`
	Email            string            `json:"email,omitempty"`
	PhoneNumber      string            `json:"phone_number,omitempty"`
	AccountType      string            `json:"account_type,omitempty"`
	IsVerified       bool              `json:"is_verified"`
	DeveloperProfile *DeveloperProfile `json:"developer_profile,omitempty"`
	BusinessProfile  *BusinessProfile  `json:"business_profile,omitempty"`
	CreatedAt        *time.Time        `json:"created_at,omitempty"`
}

// DeveloperProfile is attached once the account registered as a developer
type DeveloperProfile struct {
	ID          string `json:"id"`
	CompanyName string `json:"company_name,omitempty"`
	Website     string `json:"website,omitempty"`
	IsApproved  bool   `json:"is_approved"`
}

// BusinessProfile is attached once the backend recognises a business account
type BusinessProfile struct {
	ID           string `json:"id"`
	BusinessName string `json:"business_name"`
	BusinessType string `json:"business_type,omitempty"`
	IsVerified   bool   `json:"is_verified"`
}

// Session is the authenticated state held by the session store
type Session struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	DeviceID     string       `json:"device_id"`
	User         *UserProfile `json:"user"`
}

// TokenResponse is returned by login, register and refresh
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	DeviceID     string `json:"device_id,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// DeveloperCredentials are the API credentials issued to a developer account
type DeveloperCredentials struct {
	ClientID     string     `json:"client_id"`
	ClientSecret string     `json:"client_secret,omitempty"`
	APIKey       string     `json:"api_key,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}
