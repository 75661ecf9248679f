package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"blog-server/internal/domain"
	"blog-server/internal/repository"
	"blog-server/internal/storage"
)

const (
	defaultPageLimit = 10
	// placeholderAuthor is recorded when no author was supplied with the
	// submission.
	placeholderAuthor = "unknown"
)

// CreatePostInput carries the form fields of a post submission. Categories
// and Tags arrive as comma-delimited strings and are split by the service.
type CreatePostInput struct {
	Title      string
	Content    string
	Categories string
	Tags       string
	Excerpt    string
	Status     string
	Author     string
}

// UpdatePostInput carries a partial update; nil fields are left untouched.
// RemoveImage explicitly clears the cover image and deletes the remote
// object.
type UpdatePostInput struct {
	Title       *string
	Content     *string
	Categories  *string
	Tags        *string
	Excerpt     *string
	Status      *string
	Author      *string
	RemoveImage bool
}

// ListOptions narrows and pages the post listing. Filters combine with AND.
type ListOptions struct {
	Status   string
	Category string
	Tag      string
	Limit    int
	Page     int
}

// PostService coordinates post CRUD and the cover image lifecycle. Remote
// image deletion is best-effort throughout: failures are logged and never
// abort the enclosing operation.
type PostService interface {
	Create(ctx context.Context, input CreatePostInput, image *storage.UploadInput) (*domain.Post, error)
	Get(ctx context.Context, id int64) (*domain.Post, error)
	List(ctx context.Context, opts ListOptions) ([]domain.Post, int, error)
	Update(ctx context.Context, id int64, input UpdatePostInput, image *storage.UploadInput) (*domain.Post, error)
	Delete(ctx context.Context, id int64) error
}

type postService struct {
	posts  repository.PostRepository
	images storage.Service
	logger *logrus.Logger
}

func NewPostService(posts repository.PostRepository, images storage.Service, logger *logrus.Logger) PostService {
	return &postService{
		posts:  posts,
		images: images,
		logger: logger,
	}
}

func (s *postService) Create(ctx context.Context, input CreatePostInput, image *storage.UploadInput) (*domain.Post, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, validationErr("title is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, validationErr("content is required")
	}

	categories := splitList(input.Categories)
	if len(categories) == 0 {
		return nil, validationErr("category is required")
	}

	status := domain.PostStatusPublished
	if input.Status != "" {
		status = domain.PostStatus(input.Status)
		if !domain.ValidStatus(status) {
			return nil, validationErr("status must be published or draft")
		}
	}

	author := strings.TrimSpace(input.Author)
	if author == "" {
		author = placeholderAuthor
	}

	post := &domain.Post{
		Title:      title,
		Content:    input.Content,
		Categories: categories,
		Tags:       splitList(input.Tags),
		Excerpt:    strings.TrimSpace(input.Excerpt),
		Status:     status,
		Author:     author,
	}

	if image != nil {
		uploaded, err := s.images.UploadImage(ctx, *image)
		if err != nil {
			return nil, err
		}
		post.CoverImage = &domain.CoverImage{URL: uploaded.URL, Key: uploaded.Key}
	}

	if _, err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) Get(ctx context.Context, id int64) (*domain.Post, error) {
	return s.posts.Get(ctx, id)
}

// List returns a page of posts newest-first plus the total page count, which
// comes from a separate count query over the same filter.
func (s *postService) List(ctx context.Context, opts ListOptions) ([]domain.Post, int, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}

	filter := repository.PostFilter{
		Status:   domain.PostStatus(opts.Status),
		Category: opts.Category,
		Tag:      opts.Tag,
	}
	if opts.Status != "" && !domain.ValidStatus(filter.Status) {
		return nil, 0, validationErr("status must be published or draft")
	}

	posts, err := s.posts.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.posts.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	totalPages := (total + limit - 1) / limit
	return posts, totalPages, nil
}

func (s *postService) Update(ctx context.Context, id int64, input UpdatePostInput, image *storage.UploadInput) (*domain.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, validationErr("title is required")
		}
		post.Title = title
	}
	if input.Content != nil {
		if strings.TrimSpace(*input.Content) == "" {
			return nil, validationErr("content is required")
		}
		post.Content = *input.Content
	}
	if input.Categories != nil {
		categories := splitList(*input.Categories)
		if len(categories) == 0 {
			return nil, validationErr("category is required")
		}
		post.Categories = categories
	}
	if input.Tags != nil {
		post.Tags = splitList(*input.Tags)
	}
	if input.Excerpt != nil {
		post.Excerpt = strings.TrimSpace(*input.Excerpt)
	}
	if input.Status != nil {
		status := domain.PostStatus(*input.Status)
		if !domain.ValidStatus(status) {
			return nil, validationErr("status must be published or draft")
		}
		post.Status = status
	}
	if input.Author != nil && strings.TrimSpace(*input.Author) != "" {
		post.Author = strings.TrimSpace(*input.Author)
	}

	oldImage := post.CoverImage
	switch {
	case image != nil:
		uploaded, err := s.images.UploadImage(ctx, *image)
		if err != nil {
			return nil, err
		}
		post.CoverImage = &domain.CoverImage{URL: uploaded.URL, Key: uploaded.Key}
		s.deleteImage(ctx, oldImage)
	case input.RemoveImage:
		s.deleteImage(ctx, oldImage)
		post.CoverImage = nil
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Delete removes the remote image first, then the record. The pair is not
// transactional: a crash in between leaves an orphaned remote image, which is
// accepted and not reconciled.
func (s *postService) Delete(ctx context.Context, id int64) error {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return err
	}

	s.deleteImage(ctx, post.CoverImage)

	return s.posts.Delete(ctx, id)
}

func (s *postService) deleteImage(ctx context.Context, image *domain.CoverImage) {
	if image == nil || image.Key == "" {
		return
	}
	if err := s.images.DeleteImage(ctx, image.Key); err != nil {
		s.logger.Warnf("delete remote image %s: %v", image.Key, err)
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
