// Package storage archives generated files in S3-compatible object storage
// and hands out time-limited download links.
package storage

import (
	"context"
	"io"
	"time"
)

// PresignedURL is a time-limited download link for a stored object.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StorageService is the object storage surface the exports need.
type StorageService interface {
	// UploadFile stores reader under folder and returns the generated file key.
	UploadFile(ctx context.Context, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)
	// GenerateDownloadURL presigns a GET for fileKey.
	GenerateDownloadURL(ctx context.Context, fileKey string) (*PresignedURL, error)
	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context) error
}
