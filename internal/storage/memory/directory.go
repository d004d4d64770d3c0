package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hongminglow/finanzas-be/internal/models"
	"github.com/hongminglow/finanzas-be/internal/storage"
)

var _ storage.UserStore = (*Directory)(nil)

// Directory is a process-local user directory. Contents are lost on restart.
type Directory struct {
	mu    sync.RWMutex
	users []models.User
}

// NewDirectory returns a directory seeded with the demo accounts.
func NewDirectory() *Directory {
	return NewDirectoryWith(storage.SeedUsers(time.Now().UTC()))
}

// NewDirectoryWith returns a directory holding exactly the given users.
func NewDirectoryWith(users []models.User) *Directory {
	cp := make([]models.User, len(users))
	copy(cp, users)
	return &Directory{users: cp}
}

// FindByCredentials matches email case-insensitively and password exactly.
func (d *Directory) FindByCredentials(_ context.Context, email, password string) (models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if sameEmail(u.Email, email) && u.Password == password {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

// FindByEmail fetches a user by email address, ignoring case.
func (d *Directory) FindByEmail(_ context.Context, email string) (models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i := d.indexOf(email); i >= 0 {
		return d.users[i], nil
	}
	return models.User{}, storage.ErrNotFound
}

// FindByID fetches a user by numeric id.
func (d *Directory) FindByID(_ context.Context, id int64) (models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

// CreateUser appends user with id = directory size + 1.
func (d *Directory) CreateUser(_ context.Context, user models.User) (models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.indexOf(user.Email) >= 0 {
		return models.User{}, storage.ErrAlreadyExists
	}
	user.ID = int64(len(d.users)) + 1
	if user.RegisteredAt.IsZero() {
		user.RegisteredAt = time.Now().UTC()
	}
	d.users = append(d.users, user)
	return user, nil
}

// UpdatePassword replaces the password in place; false when email is unknown.
func (d *Directory) UpdatePassword(_ context.Context, email, newPassword string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexOf(email)
	if i < 0 {
		return false, nil
	}
	d.users[i].Password = newPassword
	return true, nil
}

// Len reports how many users the directory holds.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}

// indexOf expects the caller to hold the lock.
func (d *Directory) indexOf(email string) int {
	for i, u := range d.users {
		if sameEmail(u.Email, email) {
			return i
		}
	}
	return -1
}

// sameEmail compares lowercased addresses. strings.EqualFold would also match
// fold-only variants such as the long s (U+017F) and 's'.
func sameEmail(a, b string) bool {
	return strings.ToLower(a) == strings.ToLower(b)
}
