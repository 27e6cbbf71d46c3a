package utils

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/inventory_review/config"
)

// ErrBlobNotFound is returned by BlobStore.Get when the object does not exist.
var ErrBlobNotFound = errors.New("blob not found")

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BlobStore reads and writes whole objects by key.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// NewBlobStore builds the store selected by STORAGE_PROVIDER.
func NewBlobStore(ctx context.Context, settings *config.Settings) (BlobStore, error) {
	switch settings.StorageProvider {
	case config.StorageProviderGCS:
		return NewGCSBlobStore(ctx, settings.GCSBucket, settings.GCSCredentials)
	case config.StorageProviderLocal:
		return NewLocalBlobStore(settings.LocalStorageDir)
	case config.StorageProviderMemory:
		return NewMemoryBlobStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", settings.StorageProvider)
	}
}
