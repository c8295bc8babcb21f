package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tsdash/internal/logger"
)

// LocalStorageClient stores exports under a directory of the local file system
type LocalStorageClient struct {
	baseDir string
	log     *logger.Logger
}

// NewLocalStorageClient creates a new local storage client
func NewLocalStorageClient(baseDir string) (*LocalStorageClient, error) {
	if baseDir == "" {
		baseDir = "frames"
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory %s: %w", baseDir, err)
	}

	return &LocalStorageClient{
		baseDir: baseDir,
		log:     logger.WithComponent("storage").With(logger.Fields{"backend": "local"}),
	}, nil
}

// Close is a no-op for local storage
func (l *LocalStorageClient) Close() error {
	return nil
}

// StoreFile writes a file into the export folder of timestamp
func (l *LocalStorageClient) StoreFile(ctx context.Context, fileData []byte, filename string, timestamp time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	objectPath, err := cleanObjectPath(GenerateExportFolderPath(timestamp) + "/" + filename)
	if err != nil {
		return "", err
	}

	filePath := filepath.Join(l.baseDir, filepath.FromSlash(objectPath))
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(filePath, fileData, 0644); err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", filePath, err)
	}

	l.log.Debug("File stored", logger.Fields{"path": objectPath, "bytes": len(fileData)})
	return objectPath, nil
}

// GetFile reads a file by object path relative to the base directory
func (l *LocalStorageClient) GetFile(ctx context.Context, objectPath string) ([]byte, error) {
	cleaned, err := cleanObjectPath(objectPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(l.baseDir, filepath.FromSlash(cleaned)))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", objectPath, err)
	}
	return data, nil
}

// ListExports lists folders holding a manifest, newest first
func (l *LocalStorageClient) ListExports(ctx context.Context, limit int) ([]string, error) {
	var folders []string
	err := filepath.Walk(l.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && info.Name() == ManifestName {
			rel, relErr := filepath.Rel(l.baseDir, filepath.Dir(path))
			if relErr == nil {
				folders = append(folders, filepath.ToSlash(rel))
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk frames directory: %w", err)
	}
	return newestFirst(folders, limit), nil
}
