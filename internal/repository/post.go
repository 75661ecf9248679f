package repository

import (
	"context"

	"blog-server/internal/domain"
)

// PostFilter narrows List/Count queries. Zero-valued fields are ignored;
// non-zero fields combine with AND.
type PostFilter struct {
	Status   domain.PostStatus
	Category string
	Tag      string
}

// PostRepository exposes persistence operations for Post aggregates.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Post, error)
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]domain.Post, error)
	Count(ctx context.Context, filter PostFilter) (int, error)
}
