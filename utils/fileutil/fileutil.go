package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// MaxFileSize caps event payloads, key files and prompt configs (10MB)
	MaxFileSize = 10 * 1024 * 1024
	// MaxImageSize caps a single reference image download (20MB)
	MaxImageSize = 20 * 1024 * 1024
)

// ErrTooLarge is returned when content exceeds its size limit
var ErrTooLarge = errors.New("content exceeds size limit")

// CheckFileSize verifies if a file is within acceptable size limits
func CheckFileSize(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error checking file size: %w", err)
	}
	if info.Size() > MaxFileSize {
		return fmt.Errorf("file %s is %d bytes, limit is %d: %w", path, info.Size(), MaxFileSize, ErrTooLarge)
	}
	return nil
}

// SafeReadFile reads a file after checking its size
func SafeReadFile(path string) ([]byte, error) {
	if err := CheckFileSize(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return data, nil
}

// ReadLimited reads r fully, failing with ErrTooLarge past limit bytes
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("read more than %d bytes: %w", limit, ErrTooLarge)
	}
	return data, nil
}
