package storage

import (
	"time"

	"github.com/hongminglow/finanzas-be/internal/models"
)

// DemoPassword is shared by every seeded account.
const DemoPassword = "123456"

// SeedUsers returns the demo accounts every fresh directory starts with, one
// per role, all active and verified.
func SeedUsers(now time.Time) []models.User {
	seed := func(id int64, name, email string, role models.Role) models.User {
		return models.User{
			ID:            id,
			Name:          name,
			Email:         email,
			Password:      DemoPassword,
			Role:          role,
			Active:        true,
			EmailVerified: true,
			RegisteredAt:  now,
			Preferences:   models.DefaultPreferences(),
		}
	}
	return []models.User{
		seed(1, "Admin Sistema", "admin@finanzas.com", models.Administrator),
		seed(2, "Usuario Premium", "premium@finanzas.com", models.PremiumUser),
		seed(3, "Usuario Basico", "basico@finanzas.com", models.BasicUser),
		seed(4, "Auditor Contable", "auditor@finanzas.com", models.Auditor),
	}
}
