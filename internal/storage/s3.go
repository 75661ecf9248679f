package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// S3Service stores cover images in Amazon S3 (or compatible APIs).
type S3Service struct {
	client    *s3.Client
	uploader  *manager.Uploader
	bucket    string
	keyPrefix string
}

func NewS3Service(client *s3.Client, bucket, keyPrefix string) *S3Service {
	return &S3Service{
		client:    client,
		uploader:  manager.NewUploader(client),
		bucket:    bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
	}
}

// UploadImage stores the payload under a random key and returns the public
// URL together with the key needed to delete it later.
func (s *S3Service) UploadImage(ctx context.Context, input UploadInput) (*UploadedImage, error) {
	if s.bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	if input.Body == nil {
		return nil, fmt.Errorf("image body is required")
	}
	if !strings.HasPrefix(input.ContentType, "image/") {
		return nil, fmt.Errorf("file must be an image")
	}

	key := uuid.NewString() + strings.ToLower(path.Ext(input.Filename))
	if s.keyPrefix != "" {
		key = s.keyPrefix + "/" + key
	}

	result, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        input.Body,
		ContentType: aws.String(input.ContentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	return &UploadedImage{
		URL: result.Location,
		Key: key,
	}, nil
}

func (s *S3Service) DeleteImage(ctx context.Context, key string) error {
	if s.bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("image key is required")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

var _ Service = (*S3Service)(nil)
