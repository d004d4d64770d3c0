package models

import "time"

// DefaultCurrency is assigned to accounts that never picked one.
const DefaultCurrency = "CLP"

// Preferences holds optional per-user settings.
type Preferences struct {
	Currency             string   `json:"currency"`
	MonthlySpendingLimit *float64 `json:"monthly_spending_limit,omitempty"`
	NotificationsEnabled bool     `json:"notifications_enabled"`
}

// DefaultPreferences returns the settings new accounts start with.
func DefaultPreferences() Preferences {
	return Preferences{Currency: DefaultCurrency, NotificationsEnabled: true}
}

// User captures application-facing fields for a directory identity.
type User struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Password      string      `json:"-"`
	Role          Role        `json:"role"`
	Active        bool        `json:"active"`
	EmailVerified bool        `json:"email_verified"`
	RegisteredAt  time.Time   `json:"registered_at"`
	LastAccessAt  time.Time   `json:"last_access_at,omitzero"`
	Preferences   Preferences `json:"preferences"`
}

// Can reports whether the user's role grants p.
func (u User) Can(p Permission) bool {
	return u.Role.HasPermission(p)
}
