package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"crypto/sha256"
	"encoding/hex"
)

// Storage is the backend for repair request attachments (device photos,
// receipts, diagnostic reports).
type Storage interface {
	PresignPut(ctx context.Context, objectName, contentType string, expiresIn time.Duration) (string, error)
	PresignGet(ctx context.Context, objectName string, expiresIn time.Duration) (string, error)
	Put(ctx context.Context, objectName string, reader io.Reader) error
	Get(ctx context.Context, objectName string) (io.ReadCloser, error)
	Delete(ctx context.Context, objectName string) error
}

// LocalStorage implements Storage on the local filesystem.
type LocalStorage struct {
	baseDir string
	baseURL string
}

func NewLocalStorage(baseDir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &LocalStorage{
		baseDir: baseDir,
		baseURL: baseURL,
	}, nil
}

// ObjectName builds the canonical object path for an attachment. Objects are
// grouped per request so deleting a request can sweep its directory.
func ObjectName(requestID, attachmentID, fileName string) string {
	return fmt.Sprintf("requests/%s/%s-%s", requestID, attachmentID, filepath.Base(fileName))
}

func (s *LocalStorage) PresignPut(ctx context.Context, objectName, contentType string, expiresIn time.Duration) (string, error) {
	// Local storage has no real presigning; the returned URL hits the
	// upload handler, which enforces the attachment policy.
	return fmt.Sprintf("%s/files/%s", s.baseURL, objectName), nil
}

func (s *LocalStorage) PresignGet(ctx context.Context, objectName string, expiresIn time.Duration) (string, error) {
	return fmt.Sprintf("%s/files/%s", s.baseURL, objectName), nil
}

func (s *LocalStorage) Put(ctx context.Context, objectName string, reader io.Reader) error {
	fullPath := filepath.Join(s.baseDir, objectName)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func (s *LocalStorage) Get(ctx context.Context, objectName string) (io.ReadCloser, error) {
	fullPath := filepath.Join(s.baseDir, objectName)
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (s *LocalStorage) Delete(ctx context.Context, objectName string) error {
	fullPath := filepath.Join(s.baseDir, objectName)
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// CalculateSHA256 calculates the SHA256 hash of file content.
func CalculateSHA256(reader io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, reader); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
