package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/finanzas-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore is the user directory consulted by the authentication engine.
// Email comparisons are case-insensitive in every implementation.
type UserStore interface {
	FindByCredentials(ctx context.Context, email, password string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	UpdatePassword(ctx context.Context, email, newPassword string) (bool, error)
}

// KeyValueStore is the durable string store sessions are written to.
type KeyValueStore interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// PutAll writes every pair in one step.
	PutAll(ctx context.Context, values map[string]string) error
	// Clear removes every key owned by the store.
	Clear(ctx context.Context) error
}
