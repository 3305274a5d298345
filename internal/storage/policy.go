package storage

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// FilePolicy constrains attachment uploads.
type FilePolicy struct {
	MaxFileMB  float64
	MimeTypes  []string
	Extensions []string
}

// DefaultAttachmentPolicy covers what customers attach to repair requests:
// device photos and paperwork.
func DefaultAttachmentPolicy() *FilePolicy {
	return &FilePolicy{
		MaxFileMB:  10,
		MimeTypes:  []string{"image/*", "application/pdf"},
		Extensions: []string{"jpg", "jpeg", "png", "gif", "webp", "heic", "pdf"},
	}
}

// ValidateFile validates a file against the policy.
func (fp *FilePolicy) ValidateFile(fileName, contentType string, fileSizeBytes int64) error {
	if fp == nil {
		return nil
	}

	if fp.MaxFileMB > 0 {
		maxBytes := int64(fp.MaxFileMB * 1024 * 1024)
		if fileSizeBytes > maxBytes {
			return fmt.Errorf("file size %d bytes exceeds maximum %d bytes (%.2f MB)",
				fileSizeBytes, maxBytes, fp.MaxFileMB)
		}
	}

	if len(fp.MimeTypes) > 0 && !fp.matchesMimeType(contentType) {
		return fmt.Errorf("content type %s is not allowed. Allowed types: %v",
			contentType, fp.MimeTypes)
	}

	if len(fp.Extensions) > 0 && !fp.matchesExtension(fileName) {
		return fmt.Errorf("file extension is not allowed. Allowed extensions: %v",
			fp.Extensions)
	}

	return nil
}

// matchesMimeType checks contentType against the allowed patterns, which may
// use wildcards like "image/*".
func (fp *FilePolicy) matchesMimeType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}

	for _, allowed := range fp.MimeTypes {
		if strings.HasSuffix(allowed, "/*") {
			prefix := strings.TrimSuffix(allowed, "/*")
			if strings.HasPrefix(mediaType, prefix+"/") {
				return true
			}
		} else if mediaType == allowed {
			return true
		}
	}
	return false
}

func (fp *FilePolicy) matchesExtension(fileName string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if ext == "" {
		return false
	}

	for _, allowed := range fp.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
