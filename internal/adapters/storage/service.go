// Package storage keeps repair photos in an S3-compatible bucket. Clients
// upload and download directly through short-lived presigned URLs.
package storage

import (
	"context"
	"time"
)

// PresignedURL is a temporary URL for one object.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StorageService is what the repairs module needs from object storage.
type StorageService interface {
	// GenerateUploadURL validates the declared type and size, then signs a
	// PUT for a new key under folder.
	GenerateUploadURL(ctx context.Context, bucket, folder, fileName, contentType string, sizeBytes int64) (*PresignedURL, error)
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error)
	EnsureBucketExists(ctx context.Context, bucket string) error
}

// Config is satisfied by platform/config.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}
