package filestorage

import (
	"mime/multipart"
)

// StoredFile describes a file written to storage
type StoredFile struct {
	Path string // relative to the storage root, used for deletion
	URL  string // public URL served under /uploads
	Size int64
}

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// SaveFileWithPath stores the upload under subPath with a generated name
	SaveFileWithPath(fileHeader *multipart.FileHeader, subPath string) (*StoredFile, error)

	// DeleteFile removes a previously stored file; missing files are not an error
	DeleteFile(relPath string) error
}
