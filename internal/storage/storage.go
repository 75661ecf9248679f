package storage

import (
	"context"
	"io"
)

// UploadedImage describes an image stored remotely. URL is the public
// location; Key is what DeleteImage needs to remove the object.
type UploadedImage struct {
	URL string
	Key string
}

// UploadInput carries an image payload and its metadata.
type UploadInput struct {
	Body        io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// Service stores post cover images in remote object storage.
type Service interface {
	UploadImage(ctx context.Context, input UploadInput) (*UploadedImage, error)
	DeleteImage(ctx context.Context, key string) error
}
