package storage

import (
	"errors"
	"io"
	"mime"
	"path/filepath"
)

// ErrNotFound is returned when no object exists at the given path.
var ErrNotFound = errors.New("storage: object not found")

// FileInfo describes a stored object.
type FileInfo struct {
	ID       string // unique object identifier
	Name     string // original filename
	Size     int64  // size in bytes
	MimeType string // content type
	Path     string // storage path, implementation specific
}

// Storage keeps the uploaded source documents and the generated output
// files. Objects are addressed by the Path returned from Save.
type Storage interface {
	// Save stores content under a generated path and returns its info.
	Save(reader io.Reader, filename string) (FileInfo, error)

	// Get opens a stored object by path.
	Get(path string) (io.ReadCloser, error)

	// Delete removes a stored object by path.
	Delete(path string) error

	// Exists reports whether an object is present at path.
	Exists(path string) (bool, error)

	// List returns the stored objects whose path starts with prefix.
	// An empty prefix lists everything.
	List(prefix string) ([]FileInfo, error)
}

// getMimeType resolves the content type from the file extension, defaulting
// to plain text since the pipeline only handles text documents.
func getMimeType(filename string) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return "text/plain; charset=utf-8"
}
