package models

import "time"

// Session is the identity currently authenticated on this device.
type Session struct {
	UserID  int64     `json:"user_id"`
	Email   string    `json:"email"`
	Role    Role      `json:"role"`
	LoginAt time.Time `json:"login_at"`
}
