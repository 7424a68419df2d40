package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// UploadKind selects the validation rules and storage prefix of a file.
type UploadKind string

const (
	UploadCV       UploadKind = "cv"
	UploadTestCall UploadKind = "test_call"
)

const (
	MaxCVBytes        = 5 << 20
	MaxRecordingBytes = 50 << 20
)

var cvExtensions = map[string]bool{"pdf": true, "doc": true, "docx": true}

// FileUpload is a file received from the SPA.
type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// Ext returns the lower-cased extension without the dot.
func (f *FileUpload) Ext() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
}

// Validate applies the size and type rules of kind.
func (f *FileUpload) Validate(kind UploadKind) error {
	if f.Size <= 0 || len(f.Data) == 0 {
		return &ErrValidation{Field: "file", Message: "empty file"}
	}
	switch kind {
	case UploadCV:
		if f.Size > MaxCVBytes {
			return &ErrValidation{Field: "file", Message: "CV must not exceed 5 MB"}
		}
		if !cvExtensions[f.Ext()] {
			return &ErrValidation{Field: "file", Message: "CV must be a pdf, doc or docx file"}
		}
	case UploadTestCall:
		if f.Size > MaxRecordingBytes {
			return &ErrValidation{Field: "file", Message: "recording must not exceed 50 MB"}
		}
		if !strings.HasPrefix(strings.ToLower(f.ContentType), "audio/") {
			return &ErrValidation{Field: "file", Message: "recording must be an audio file"}
		}
	default:
		return &ErrValidation{Field: "kind", Message: "unknown upload kind"}
	}
	return nil
}

// StoragePath builds {userId}/{kind}_{unixMillis}.{ext}.
func StoragePath(userID string, kind UploadKind, ext string, at time.Time) string {
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%s_%d.%s", userID, kind, at.UnixMilli(), ext)
}
