package utils

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes objects under a directory served at BaseURL.
// Used in development when R2 credentials are absent.
type LocalStore struct {
	Dir     string
	BaseURL string
}

// EnsureDir creates the upload directory if it doesn't exist
func (s LocalStore) EnsureDir() error {
	return os.MkdirAll(s.Dir, os.ModePerm)
}

// Put saves body to Dir/key and returns BaseURL/key.
func (s LocalStore) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	destPath := filepath.Join(s.Dir, filepath.FromSlash(key))
	// Ensure the directory for the destination file exists
	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return "", err
	}

	dst, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, body); err != nil {
		return "", err
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + key, nil
}
