package storage

import (
	"context"
	"time"
)

// StorageClient stores exported dashboard frames. Files of one export share
// a time-partitioned folder (see GenerateExportFolderPath).
type StorageClient interface {
	// Close closes the storage client
	Close() error

	// StoreFile stores a file in the export folder of timestamp and returns its object path
	StoreFile(ctx context.Context, fileData []byte, filename string, timestamp time.Time) (string, error)

	// GetFile retrieves a file by object path
	GetFile(ctx context.Context, objectPath string) ([]byte, error)

	// ListExports lists export folders, newest first
	ListExports(ctx context.Context, limit int) ([]string, error)
}
