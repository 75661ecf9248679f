package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"blog-server/internal/domain"
	"blog-server/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_verified INTEGER NOT NULL DEFAULT 0,
	verification_token_hash TEXT NULL,
	verification_token_expires DATETIME NULL,
	reset_token_hash TEXT NULL,
	reset_token_expires DATETIME NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Email = strings.ToLower(user.Email)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (name, email, password_hash, is_verified, verification_token_hash, verification_token_expires, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.IsVerified,
		nullString(user.VerificationTokenHash),
		user.VerificationTokenExpires,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return 0, repository.ErrDuplicateEmail
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user last insert id: %w", err)
	}
	user.ID = id
	return id, nil
}

const userColumns = `id, name, email, password_hash, is_verified, verification_token_hash, verification_token_expires, reset_token_hash, reset_token_expires, created_at, updated_at`

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users
WHERE email = ?`,
		strings.ToLower(email),
	)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users
WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

// GetByVerificationToken matches the stored hash and the expiry in one query,
// so a missing token and an expired one are indistinguishable to the caller.
func (r *UserRepository) GetByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users
WHERE verification_token_hash = ? AND verification_token_expires > ?`,
		tokenHash,
		now.UTC(),
	)
	return scanUser(row)
}

func (r *UserRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users
WHERE reset_token_hash = ? AND reset_token_expires > ?`,
		tokenHash,
		now.UTC(),
	)
	return scanUser(row)
}

func (r *UserRepository) SetVerificationToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error {
	return r.exec(ctx, `
UPDATE users
SET verification_token_hash = ?, verification_token_expires = ?, updated_at = ?
WHERE id = ?`,
		tokenHash, expires.UTC(), time.Now().UTC(), id)
}

// MarkVerified flips the verified flag and clears the token pair in a single
// statement, making the previously issued token permanently unredeemable.
func (r *UserRepository) MarkVerified(ctx context.Context, id int64) error {
	return r.exec(ctx, `
UPDATE users
SET is_verified = 1, verification_token_hash = NULL, verification_token_expires = NULL, updated_at = ?
WHERE id = ?`,
		time.Now().UTC(), id)
}

func (r *UserRepository) SetResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error {
	return r.exec(ctx, `
UPDATE users
SET reset_token_hash = ?, reset_token_expires = ?, updated_at = ?
WHERE id = ?`,
		tokenHash, expires.UTC(), time.Now().UTC(), id)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.exec(ctx, `
UPDATE users
SET password_hash = ?, reset_token_hash = NULL, reset_token_expires = NULL, updated_at = ?
WHERE id = ?`,
		passwordHash, time.Now().UTC(), id)
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		user          domain.User
		verifyHash    sql.NullString
		verifyExpires sql.NullTime
		resetHash     sql.NullString
		resetExpires  sql.NullTime
	)
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.IsVerified,
		&verifyHash,
		&verifyExpires,
		&resetHash,
		&resetExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.VerificationTokenHash = verifyHash.String
	if verifyExpires.Valid {
		t := verifyExpires.Time
		user.VerificationTokenExpires = &t
	}
	user.ResetTokenHash = resetHash.String
	if resetExpires.Valid {
		t := resetExpires.Time
		user.ResetTokenExpires = &t
	}
	return &user, nil
}
