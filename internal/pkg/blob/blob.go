package blob

import (
	"context"
	"errors"
	"io"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a ref does not resolve to stored bytes.
// For records still in circulation this signals a data-integrity fault,
// not a routine miss; callers decide how loudly to report it.
var ErrNotFound = errors.New("blob not found")

// Ref identifies stored payload bytes. Exactly one field is set,
// matching the backend that produced it.
type Ref struct {
	// Path is set by the filesystem backend: object name under the store root.
	Path string
	// ObjectKey is set by the s3 backend: key in the configured bucket.
	ObjectKey string
	// Inline is set by the inline backend: the payload itself, stored
	// alongside the record row.
	Inline []byte
}

// Store abstracts where file bytes live.
type Store interface {
	// Put persists data and returns a ref for later retrieval. The
	// original filename contributes only its extension to generated
	// object names; its body is never trusted.
	Put(ctx context.Context, data []byte, originalName string, contentType string) (Ref, error)

	// Open returns a reader over the payload and its size in bytes.
	Open(ctx context.Context, ref Ref) (io.ReadCloser, int64, error)
}

// newObjectName builds a collision-resistant object name preserving the
// original extension.
func newObjectName(originalName string) string {
	return uuid.New().String() + filepath.Ext(originalName)
}
