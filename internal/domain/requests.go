package domain

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"piaxe-console/pkg/utils"
)

// Credentials is the login payload
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks the payload before it is sent
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Username, validation.Required, validation.Length(1, 150)),
		validation.Field(&c.Password, validation.Required),
	)
}

// RegisterData is the registration payload
type RegisterData struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	AccountType string `json:"account_type,omitempty"`
}

// Validate checks the payload before it is sent
func (r RegisterData) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 150)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.PhoneNumber, utils.PhoneNumber),
	)
}

// DeveloperAccountData registers the current account as a developer
type DeveloperAccountData struct {
	CompanyName string `json:"company_name"`
	Website     string `json:"website,omitempty"`
	UseCase     string `json:"use_case,omitempty"`
}

// Validate checks the payload before it is sent
func (d DeveloperAccountData) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.CompanyName, validation.Required, validation.Length(1, 200)),
		validation.Field(&d.Website, is.URL),
	)
}

// BusinessAccountData is what the onboarding form collects
type BusinessAccountData struct {
	BusinessName    string `json:"business_name"`
	BusinessType    string `json:"business_type"`
	BusinessEmail   string `json:"business_email,omitempty"`
	BusinessPhone   string `json:"business_phone,omitempty"`
	BusinessAddress string `json:"business_address,omitempty"`
	Description     string `json:"description,omitempty"`
}

// Validate checks the payload before it is sent. The phone is passed through
// as typed; the store request normalizes it when it can.
func (b BusinessAccountData) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.BusinessName, validation.Required, validation.Length(1, 200)),
		validation.Field(&b.BusinessType, validation.Required),
		validation.Field(&b.BusinessEmail, is.Email),
	)
}

// PasswordResetData finalises a password reset
type PasswordResetData struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Validate checks the payload before it is sent
func (p PasswordResetData) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Token, validation.Required),
		validation.Field(&p.NewPassword, validation.Required),
	)
}
