package storage

import "context"

// VideoStorage defines the upload surface handlers depend on.
// This interface allows for easy mocking in tests
type VideoStorage interface {
	PresignVideoUpload(ctx context.Context, userID, originalFilename string) (*PresignedUpload, error)
	DeleteFile(ctx context.Context, key string) error
	ObjectURL(key string) string
}

// Ensure S3Storage implements VideoStorage
var _ VideoStorage = (*S3Storage)(nil)
