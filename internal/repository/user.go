package repository

import (
	"context"
	"time"

	"blog-server/internal/domain"
)

// UserRepository defines persistence operations for User entities.
//
// Token lookups compare against the stored hash and expiry in one query so
// callers cannot tell a missing token from an expired one. The Set/Clear
// operations write a token hash and its expiry together, keeping the pair
// consistent.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)
	SetVerificationToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error
	MarkVerified(ctx context.Context, id int64) error
	SetResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}
