// Package storage uploads generated images and hands back URLs that can be embedded in comments.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eidosai/eidos/utils/config"
	"github.com/eidosai/eidos/utils/prompt"
	"github.com/google/uuid"
)

// Uploader stores an image and returns a retrievable URL
type Uploader interface {
	Upload(ctx context.Context, image prompt.ImageData) (string, error)
}

var mimeExtensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// ExtensionFor returns the file extension of a MIME type, .png when unknown
func ExtensionFor(mimeType string) string {
	if ext, ok := mimeExtensions[strings.ToLower(strings.TrimSpace(mimeType))]; ok {
		return ext
	}
	return ".png"
}

// ObjectName returns an unguessable object name for an image
func ObjectName(prefix, mimeType string) string {
	name := uuid.New().String() + ExtensionFor(mimeType)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// DirUploader writes images into a local directory
type DirUploader struct {
	dir     string
	baseURL string
}

// NewDirUploader creates an uploader rooted at dir, creating it if needed
func NewDirUploader(dir string) (*DirUploader, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating output directory: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid output directory: %w", err)
	}
	return &DirUploader{dir: abs}, nil
}

// SetBaseURL makes Upload return baseURL/<name> instead of a file:// URL
func (d *DirUploader) SetBaseURL(baseURL string) {
	d.baseURL = strings.TrimSuffix(baseURL, "/")
}

// Dir returns the directory images are written to
func (d *DirUploader) Dir() string {
	return d.dir
}

// Upload writes the image and returns its URL
func (d *DirUploader) Upload(ctx context.Context, image prompt.ImageData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := ObjectName("", image.MIMEType)
	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, image.Data, 0644); err != nil {
		return "", fmt.Errorf("error writing image: %w", err)
	}
	config.VerboseLog("Saved image to %s (%d bytes)", path, len(image.Data))
	if d.baseURL != "" {
		return d.baseURL + "/" + name, nil
	}
	return "file://" + filepath.ToSlash(path), nil
}

// New picks the uploader described by the configuration: GCS when configured, else a local directory
func New(ctx context.Context, cfg config.StorageConfig, fallbackDir string) (Uploader, error) {
	if cfg.GCS != nil && cfg.GCS.BucketName != "" {
		return NewGCSUploader(ctx, *cfg.GCS)
	}
	dir := cfg.LocalDir
	if dir == "" {
		dir = fallbackDir
	}
	if dir == "" {
		return nil, fmt.Errorf("no storage configured")
	}
	return NewDirUploader(dir)
}
