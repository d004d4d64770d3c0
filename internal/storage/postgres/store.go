package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/finanzas-be/internal/models"
	"github.com/hongminglow/finanzas-be/internal/storage"
)

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

// Store provides Postgres-backed persistence for the user directory.
// Passwords are kept as bcrypt hashes; callers still pass plaintext.
type Store struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new Store, runs migrations and seeds demo accounts.
func NewUserStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := s.seed(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'basic-user',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			email_verified BOOLEAN NOT NULL DEFAULT FALSE,
			registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_access_at TIMESTAMPTZ,
			currency TEXT NOT NULL DEFAULT 'CLP',
			monthly_limit DOUBLE PRECISION,
			notifications BOOLEAN NOT NULL DEFAULT TRUE
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_unique_idx ON users (lower(email));`,
		`CREATE TABLE IF NOT EXISTS role (role_name TEXT PRIMARY KEY, display_name TEXT NOT NULL, role_description TEXT);`,
		`CREATE TABLE IF NOT EXISTS permission (permission_name TEXT PRIMARY KEY);`,
		`CREATE TABLE IF NOT EXISTS role_permissions (
			role_name TEXT NOT NULL REFERENCES role(role_name),
			permission_name TEXT NOT NULL REFERENCES permission(permission_name),
			PRIMARY KEY (role_name, permission_name)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return s.syncRoleCatalog(ctx)
}

// syncRoleCatalog mirrors the static role registry into reference tables so
// reports can join on them. The registry stays the source of truth.
func (s *Store) syncRoleCatalog(ctx context.Context) error {
	batch := &pgx.Batch{}
	for _, p := range models.AllPermissions() {
		batch.Queue(`INSERT INTO permission (permission_name) VALUES ($1) ON CONFLICT DO NOTHING`, string(p))
	}
	for _, r := range models.Roles() {
		info := r.Info()
		batch.Queue(`INSERT INTO role (role_name, display_name, role_description) VALUES ($1, $2, $3)
			ON CONFLICT (role_name) DO UPDATE SET display_name = EXCLUDED.display_name, role_description = EXCLUDED.role_description`,
			string(r), info.RoleName, info.RoleDescription)
		batch.Queue(`DELETE FROM role_permissions WHERE role_name = $1`, string(r))
		for _, p := range info.Permission {
			batch.Queue(`INSERT INTO role_permissions (role_name, permission_name) VALUES ($1, $2)`, string(r), string(p))
		}
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("sync role catalog: %w", err)
	}
	return nil
}

// seed inserts the demo accounts with their fixed ids. Reruns are no-ops.
func (s *Store) seed(ctx context.Context) error {
	for _, u := range storage.SeedUsers(time.Now().UTC()) {
		hash, err := hashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("seed %s: %w", u.Email, err)
		}
		_, err = s.pool.Exec(ctx, `
			INSERT INTO users (id, name, email, password_hash, role, active, email_verified, registered_at, currency, notifications)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT DO NOTHING`,
			u.ID, u.Name, u.Email, hash, string(u.Role), u.Active, u.EmailVerified, u.RegisteredAt,
			u.Preferences.Currency, u.Preferences.NotificationsEnabled,
		)
		if err != nil {
			return fmt.Errorf("seed %s: %w", u.Email, err)
		}
	}
	return nil
}

const selectUser = `
	SELECT id, name, email, password_hash, role, active, email_verified, registered_at,
		last_access_at, currency, monthly_limit, notifications
	FROM users
`

// CreateUser inserts a new user row with id = row count + 1. The table lock
// serializes concurrent registrations so two inserts never read the same count.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	hash, err := hashPassword(user.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	if user.RegisteredAt.IsZero() {
		user.RegisteredAt = time.Now().UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return models.User{}, fmt.Errorf("lock users: %w", err)
	}
	const query = `
		INSERT INTO users (id, name, email, password_hash, role, active, email_verified, registered_at, currency, monthly_limit, notifications)
		VALUES ((SELECT COUNT(*) + 1 FROM users), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, name, email, password_hash, role, active, email_verified, registered_at,
			last_access_at, currency, monthly_limit, notifications
	`
	row := tx.QueryRow(ctx, query,
		user.Name, user.Email, hash, string(user.Role), user.Active, user.EmailVerified, user.RegisteredAt,
		user.Preferences.Currency, user.Preferences.MonthlySpendingLimit, user.Preferences.NotificationsEnabled,
	)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return models.User{}, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

// FindByCredentials fetches a user by email and checks the password hash.
// A mismatch is reported as storage.ErrNotFound.
func (s *Store) FindByCredentials(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	if !checkPassword(user.Password, password) {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

// FindByEmail fetches a user by email address, ignoring case.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.pool.QueryRow(ctx, selectUser+`WHERE lower(email) = lower($1);`, email)
	return scanUser(row)
}

// FindByID fetches a user by id.
func (s *Store) FindByID(ctx context.Context, id int64) (models.User, error) {
	row := s.pool.QueryRow(ctx, selectUser+`WHERE id = $1;`, id)
	return scanUser(row)
}

// UpdatePassword stores a new hash for the account; false when no row matched.
func (s *Store) UpdatePassword(ctx context.Context, email, newPassword string) (bool, error) {
	hash, err := hashPassword(newPassword)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE lower(email) = lower($2)`, hash, email)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Len reports the number of accounts in the directory.
func (s *Store) Len(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// scanUser leaves the bcrypt hash in User.Password; it never leaves this package
// through JSON since the field is not serialized.
func scanUser(row pgx.Row) (models.User, error) {
	var (
		user       models.User
		role       string
		lastAccess *time.Time
	)
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Password, &role, &user.Active, &user.EmailVerified,
		&user.RegisteredAt, &lastAccess, &user.Preferences.Currency, &user.Preferences.MonthlySpendingLimit,
		&user.Preferences.NotificationsEnabled,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	user.Role = models.Role(role)
	if lastAccess != nil {
		user.LastAccessAt = *lastAccess
	}
	return user, nil
}

// bcrypt only reads the first 72 bytes and x/crypto rejects anything longer,
// so longer passwords are reduced to a SHA-256 digest first.
const bcryptMaxBytes = 72

func passwordKey(password string) []byte {
	if len(password) <= bcryptMaxBytes {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(passwordKey(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), passwordKey(password)) == nil
}
