package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultAttachmentPolicy(t *testing.T) {
	policy := DefaultAttachmentPolicy()

	tests := []struct {
		name        string
		fileName    string
		contentType string
		size        int64
		wantErr     bool
	}{
		{"device photo", "cracked-screen.jpg", "image/jpeg", 2 * 1024 * 1024, false},
		{"receipt pdf", "receipt.pdf", "application/pdf", 512 * 1024, false},
		{"heic photo", "IMG_0042.heic", "image/heic", 4 * 1024 * 1024, false},
		{"mime with params", "photo.png", "image/png; charset=binary", 1024, false},
		{"too large", "huge.jpg", "image/jpeg", 11 * 1024 * 1024, true},
		{"executable", "malware.exe", "application/octet-stream", 1024, true},
		{"wrong extension right mime", "photo.exe", "image/jpeg", 1024, true},
		{"no extension", "README", "image/jpeg", 1024, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.ValidateFile(tt.fileName, tt.contentType, tt.size)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFilePolicy_NilAllowsEverything(t *testing.T) {
	var policy *FilePolicy
	assert.NoError(t, policy.ValidateFile("anything.exe", "application/octet-stream", 1<<40))
}

func TestObjectName(t *testing.T) {
	name := ObjectName("req-1", "att-1", "photo.jpg")
	assert.Equal(t, "requests/req-1/att-1-photo.jpg", name)

	// Path traversal in the file name is stripped.
	name = ObjectName("req-1", "att-1", "../../etc/passwd")
	assert.Equal(t, "requests/req-1/att-1-passwd", name)
}
