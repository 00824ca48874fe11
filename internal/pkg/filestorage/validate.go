package filestorage

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxUploadBytes is the 5MB cap applied when none is configured.
const DefaultMaxUploadBytes int64 = 5 << 20

var (
	ErrUnsupportedExtension = errors.New("only .pdf and .txt files are allowed")
	ErrFileTooLarge         = errors.New("file exceeds the upload size limit")
	ErrMimeMismatch         = errors.New("file content does not match its extension")
	ErrEmptyFile            = errors.New("file is empty")
)

// allowedTypes maps an accepted extension to the MIME type its content must sniff as.
var allowedTypes = map[string]string{
	".pdf": "application/pdf",
	".txt": "text/plain",
}

// ValidateUpload checks extension, size and sniffed content type of an upload
// and returns the detected MIME type.
func ValidateUpload(fileHeader *multipart.FileHeader, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	want, ok := allowedTypes[ext]
	if !ok {
		return "", ErrUnsupportedExtension
	}
	if fileHeader.Size > maxBytes {
		return "", ErrFileTooLarge
	}
	if fileHeader.Size == 0 {
		return "", ErrEmptyFile
	}

	f, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type: %w", err)
	}
	if !mtype.Is(want) {
		return "", fmt.Errorf("%w: %s detected as %s", ErrMimeMismatch, ext, mtype.String())
	}
	return want, nil
}
