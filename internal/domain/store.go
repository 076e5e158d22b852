package domain

import "time"

// Store is a merchant storefront owned by a business account
type Store struct {
	ID                      string                   `json:"id"`
	Name                    string                   `json:"name"`
	Description             string                   `json:"description,omitempty"`
	Email                   string                   `json:"email,omitempty"`
	Phone                   string                   `json:"phone,omitempty"`
	Address                 string                   `json:"address,omitempty"`
	Category                string                   `json:"category,omitempty"`
	IsActive                bool                     `json:"is_active"`
	BusinessHours           *BusinessHours           `json:"business_hours,omitempty"`
	NotificationPreferences *NotificationPreferences `json:"notification_preferences,omitempty"`
	CreatedAt               *time.Time               `json:"created_at,omitempty"`
}

// CreateStoreRequest is the store creation payload
type CreateStoreRequest struct {
	Name                    string                  `json:"name"`
	Description             string                  `json:"description,omitempty"`
	Email                   string                  `json:"email,omitempty"`
	Phone                   string                  `json:"phone,omitempty"`
	Address                 string                  `json:"address,omitempty"`
	Category                string                  `json:"category,omitempty"`
	BusinessHours           BusinessHours           `json:"business_hours"`
	NotificationPreferences NotificationPreferences `json:"notification_preferences"`
}

// UpdateStoreRequest carries the fields being changed
type UpdateStoreRequest struct {
	Name                    *string                  `json:"name,omitempty"`
	Description             *string                  `json:"description,omitempty"`
	Email                   *string                  `json:"email,omitempty"`
	Phone                   *string                  `json:"phone,omitempty"`
	Address                 *string                  `json:"address,omitempty"`
	IsActive                *bool                    `json:"is_active,omitempty"`
	BusinessHours           *BusinessHours           `json:"business_hours,omitempty"`
	NotificationPreferences *NotificationPreferences `json:"notification_preferences,omitempty"`
}

// DayHours is the opening window for one weekday
type DayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

// BusinessHours holds one entry per weekday
type BusinessHours struct {
	Monday    DayHours `json:"monday"`
	Tuesday   DayHours `json:"tuesday"`
	Wednesday DayHours `json:"wednesday"`
	Thursday  DayHours `json:"thursday"`
	Friday    DayHours `json:"friday"`
	Saturday  DayHours `json:"saturday"`
	Sunday    DayHours `json:"sunday"`
}

// NotificationPreferences controls which store events notify the owner
type NotificationPreferences struct {
	EmailNotifications bool `json:"email_notifications"`
	SMSNotifications   bool `json:"sms_notifications"`
	OrderNotifications bool `json:"order_notifications"`
	LowStockAlerts     bool `json:"low_stock_alerts"`
	PaymentAlerts      bool `json:"payment_alerts"`
}

// DefaultBusinessHours is the schedule new stores start with
func DefaultBusinessHours() BusinessHours {
	weekday := DayHours{Open: "09:00", Close: "17:00"}
	return BusinessHours{
		Monday:    weekday,
		Tuesday:   weekday,
		Wednesday: weekday,
		Thursday:  weekday,
		Friday:    weekday,
		Saturday:  DayHours{Open: "10:00", Close: "14:00"},
		Sunday:    DayHours{Closed: true},
	}
}

// DefaultNotificationPreferences is what new stores start with
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		EmailNotifications: true,
		SMSNotifications:   false,
		OrderNotifications: true,
		LowStockAlerts:     true,
		PaymentAlerts:      true,
	}
}
