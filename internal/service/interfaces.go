package service

import (
	"context"

	"piaxe-console/internal/domain"
)

// AuthAPI defines the backend authentication calls the session store needs
type AuthAPI interface {
	// SetDeviceID binds subsequent calls to a device
	SetDeviceID(id string)
	DeviceID() string

	Login(ctx context.Context, creds domain.Credentials) (*domain.TokenResponse, error)
	Register(ctx context.Context, data domain.RegisterData) (*domain.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenResponse, error)

	// Logout notifies the backend without waiting for it
	Logout(ctx context.Context, accessToken, refreshToken string)

	GetProfile(ctx context.Context, accessToken string) (*domain.UserProfile, error)
	CreateDeveloperAccount(ctx context.Context, accessToken string, data domain.DeveloperAccountData) (*domain.DeveloperProfile, error)
	CreateBusinessAccount(ctx context.Context, accessToken string, data domain.BusinessAccountData) (*domain.Store, error)
}

// StoreLister lists the stores of the authenticated account
type StoreLister interface {
	ListStores(ctx context.Context) ([]domain.Store, error)
}
