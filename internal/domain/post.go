package domain

import "time"

type PostStatus string

const (
	PostStatusPublished PostStatus = "published"
	PostStatusDraft     PostStatus = "draft"
)

// ValidStatus reports whether s is one of the two post statuses.
func ValidStatus(s PostStatus) bool {
	return s == PostStatusPublished || s == PostStatusDraft
}

// CoverImage references an uploaded image in remote storage. URL is the
// public location served to clients; Key is what the storage service needs
// to delete the object. Both are set together or not at all.
type CoverImage struct {
	URL string
	Key string
}

// Post is a blog post tracked by the system.
type Post struct {
	ID         int64
	Title      string
	Content    string
	Categories []string
	Tags       []string
	Excerpt    string
	Status     PostStatus
	CoverImage *CoverImage
	Author     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
