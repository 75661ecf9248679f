package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"blog-server/internal/domain"
	"blog-server/internal/repository"
)

const createPostsTable = `
CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	categories TEXT NOT NULL DEFAULT '[]',
	tags TEXT NOT NULL DEFAULT '[]',
	excerpt TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'published',
	cover_image_url TEXT NOT NULL DEFAULT '',
	cover_image_key TEXT NOT NULL DEFAULT '',
	author TEXT NOT NULL DEFAULT 'unknown',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) repository.PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createPostsTable); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}
	return nil
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (int64, error) {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	categories, tags, err := marshalLists(post)
	if err != nil {
		return 0, err
	}

	var imageURL, imageKey string
	if post.CoverImage != nil {
		imageURL = post.CoverImage.URL
		imageKey = post.CoverImage.Key
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO posts (title, content, categories, tags, excerpt, status, cover_image_url, cover_image_key, author, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.Title,
		post.Content,
		categories,
		tags,
		post.Excerpt,
		string(post.Status),
		imageURL,
		imageKey,
		post.Author,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("post last insert id: %w", err)
	}
	post.ID = id
	return id, nil
}

const postColumns = `id, title, content, categories, tags, excerpt, status, cover_image_url, cover_image_key, author, created_at, updated_at`

func (r *PostRepository) Get(ctx context.Context, id int64) (*domain.Post, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+postColumns+`
FROM posts
WHERE id = ?`,
		id,
	)
	return scanPost(row)
}

func (r *PostRepository) Update(ctx context.Context, post *domain.Post) error {
	post.UpdatedAt = time.Now().UTC()

	categories, tags, err := marshalLists(post)
	if err != nil {
		return err
	}

	var imageURL, imageKey string
	if post.CoverImage != nil {
		imageURL = post.CoverImage.URL
		imageKey = post.CoverImage.Key
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE posts
SET title = ?, content = ?, categories = ?, tags = ?, excerpt = ?, status = ?, cover_image_url = ?, cover_image_key = ?, author = ?, updated_at = ?
WHERE id = ?`,
		post.Title,
		post.Content,
		categories,
		tags,
		post.Excerpt,
		string(post.Status),
		imageURL,
		imageKey,
		post.Author,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update post rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List returns a page of posts sorted newest-first. Filter fields combine
// with AND; categories and tags are matched against their JSON arrays via
// json_each.
func (r *PostRepository) List(ctx context.Context, filter repository.PostFilter, limit, offset int) ([]domain.Post, error) {
	where, args := buildFilter(filter)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, `
SELECT `+postColumns+`
FROM posts
`+where+`
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) Count(ctx context.Context, filter repository.PostFilter) (int, error) {
	where, args := buildFilter(filter)

	var count int
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts `+where, args...)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

func buildFilter(filter repository.PostFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.Status != "" {
		clauses = append(clauses, `status = ?`)
		args = append(args, string(filter.Status))
	}
	if filter.Category != "" {
		clauses = append(clauses, `EXISTS (SELECT 1 FROM json_each(posts.categories) WHERE json_each.value = ?)`)
		args = append(args, filter.Category)
	}
	if filter.Tag != "" {
		clauses = append(clauses, `EXISTS (SELECT 1 FROM json_each(posts.tags) WHERE json_each.value = ?)`)
		args = append(args, filter.Tag)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func marshalLists(post *domain.Post) (string, string, error) {
	categories, err := marshalStrings(post.Categories)
	if err != nil {
		return "", "", fmt.Errorf("marshal categories: %w", err)
	}
	tags, err := marshalStrings(post.Tags)
	if err != nil {
		return "", "", fmt.Errorf("marshal tags: %w", err)
	}
	return categories, tags, nil
}

func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func scanPost(row interface {
	Scan(dest ...any) error
}) (*domain.Post, error) {
	var (
		post       domain.Post
		categories string
		tags       string
		status     string
		imageURL   string
		imageKey   string
	)
	if err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&categories,
		&tags,
		&post.Excerpt,
		&status,
		&imageURL,
		&imageKey,
		&post.Author,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	if err := json.Unmarshal([]byte(categories), &post.Categories); err != nil {
		return nil, fmt.Errorf("unmarshal categories: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &post.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	post.Status = domain.PostStatus(status)
	if imageURL != "" || imageKey != "" {
		post.CoverImage = &domain.CoverImage{URL: imageURL, Key: imageKey}
	}
	return &post, nil
}
