package storage

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
)

// ManifestName is the file every export folder carries
const ManifestName = "manifest.json"

// GenerateExportFolderPath generates a consistent folder path for an export
// Format: YYYY/MM/DD/Frames-YYYY-MM-DD-HH-MM-SS
func GenerateExportFolderPath(timestamp time.Time) string {
	timestamp = timestamp.UTC()
	return fmt.Sprintf("%04d/%02d/%02d/Frames-%04d-%02d-%02d-%02d-%02d-%02d",
		timestamp.Year(), timestamp.Month(), timestamp.Day(),
		timestamp.Year(), timestamp.Month(), timestamp.Day(),
		timestamp.Hour(), timestamp.Minute(), timestamp.Second())
}

// GetContentType determines the MIME content type based on file extension
func GetContentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain"
	case ".html":
		return "text/html"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".yaml", ".yml":
		return "application/yaml"
	default:
		return "application/octet-stream"
	}
}

// newestFirst sorts folder paths in place, newest first, and applies limit.
// Folder paths sort chronologically as strings.
func newestFirst(folders []string, limit int) []string {
	sort.Sort(sort.Reverse(sort.StringSlice(folders)))
	if limit > 0 && limit < len(folders) {
		folders = folders[:limit]
	}
	return folders
}

// cleanObjectPath rejects paths that escape the storage root
func cleanObjectPath(objectPath string) (string, error) {
	cleaned := path.Clean("/" + strings.ReplaceAll(objectPath, "\\", "/"))
	if cleaned == "/" || strings.Contains(objectPath, "..") {
		return "", fmt.Errorf("invalid object path %q", objectPath)
	}
	return strings.TrimPrefix(cleaned, "/"), nil
}
