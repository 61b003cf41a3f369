package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FilesystemStore keeps payloads as files under a single upload root
// resolved once at construction time.
type FilesystemStore struct {
	root   string
	logger *zap.Logger
}

// NewFilesystemStore probes the candidate roots in order and adopts the
// first one that accepts a write. Candidates are created (including
// parents) if absent. If none is writable the deployment is broken and
// the error is fatal at startup, not per request.
func NewFilesystemStore(candidates []string, logger *zap.Logger) (*FilesystemStore, error) {
	for _, dir := range candidates {
		if err := probeDir(dir); err != nil {
			logger.Warn("upload root candidate rejected",
				zap.String("dir", dir),
				zap.Error(err))
			continue
		}
		logger.Info("upload root selected", zap.String("dir", dir))
		return &FilesystemStore{root: dir, logger: logger}, nil
	}
	return nil, fmt.Errorf("no writable upload root among %v", candidates)
}

// probeDir verifies a directory is usable with a write-and-delete round trip.
func probeDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if _, err := f.Write([]byte("ok")); err != nil {
		f.Close()
		os.Remove(name)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return err
	}
	return os.Remove(name)
}

// Root returns the resolved upload root directory.
func (s *FilesystemStore) Root() string {
	return s.root
}

func (s *FilesystemStore) Put(ctx context.Context, data []byte, originalName string, contentType string) (Ref, error) {
	name := newObjectName(originalName)
	path := filepath.Join(s.root, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return Ref{}, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return Ref{Path: name}, nil
}

func (s *FilesystemStore) Open(ctx context.Context, ref Ref) (io.ReadCloser, int64, error) {
	if ref.Path == "" {
		return nil, 0, ErrNotFound
	}

	// Attacker-influenced names never reach the database, but the base
	// name is still all we ever join to the root.
	path := filepath.Join(s.root, filepath.Base(ref.Path))

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}

	return f, info.Size(), nil
}
