package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewObjectName(t *testing.T) {
	name := newObjectName("annual report.pdf")
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	assert.NotContains(t, name, " ")

	other := newObjectName("annual report.pdf")
	assert.NotEqual(t, name, other, "object names must not collide")

	noExt := newObjectName("README")
	assert.NotContains(t, noExt, ".")
}

func TestFilesystemStoreProbing(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission probes are meaningless as root")
	}
	base := t.TempDir()
	unwritable := filepath.Join(base, "denied")
	require.NoError(t, os.MkdirAll(unwritable, 0555))
	good := filepath.Join(base, "does", "not", "exist", "yet")

	store, err := NewFilesystemStore([]string{
		filepath.Join(unwritable, "uploads"),
		good,
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, good, store.Root())

	// left no probe litter behind
	entries, err := os.ReadDir(good)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFilesystemStoreNoWritableRoot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission probes are meaningless as root")
	}
	base := t.TempDir()
	unwritable := filepath.Join(base, "denied")
	require.NoError(t, os.MkdirAll(unwritable, 0555))

	_, err := NewFilesystemStore([]string{filepath.Join(unwritable, "a")}, zap.NewNop())
	assert.Error(t, err)
}

func TestFilesystemStoreRoundTrip(t *testing.T) {
	store, err := NewFilesystemStore([]string{t.TempDir()}, zap.NewNop())
	require.NoError(t, err)

	payload := []byte("%PDF-1.4 fake body")
	ref, err := store.Put(context.Background(), payload, "notice.pdf", "application/pdf")
	require.NoError(t, err)
	assert.NotEmpty(t, ref.Path)
	assert.True(t, strings.HasSuffix(ref.Path, ".pdf"))
	assert.Empty(t, ref.Inline)
	assert.Empty(t, ref.ObjectKey)

	rc, size, err := store.Open(context.Background(), ref)
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, int64(len(payload)), size)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFilesystemStoreMissingPayload(t *testing.T) {
	store, err := NewFilesystemStore([]string{t.TempDir()}, zap.NewNop())
	require.NoError(t, err)

	_, _, err = store.Open(context.Background(), Ref{Path: "gone.pdf"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = store.Open(context.Background(), Ref{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFilesystemStoreIgnoresPathTraversal(t *testing.T) {
	root := t.TempDir()
	store, err := NewFilesystemStore([]string{root}, zap.NewNop())
	require.NoError(t, err)

	ref, err := store.Put(context.Background(), []byte("x"), "../../etc/passwd", "application/pdf")
	require.NoError(t, err)

	// Generated name carries no directory components from the client.
	assert.Equal(t, filepath.Base(ref.Path), ref.Path)
	assert.FileExists(t, filepath.Join(root, ref.Path))
}

func TestInlineStoreRoundTrip(t *testing.T) {
	store := NewInlineStore()

	payload := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff, 0xfe}
	ref, err := store.Put(context.Background(), payload, "notice.pdf", "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, payload, ref.Inline)

	rc, size, err := store.Open(context.Background(), ref)
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, int64(len(payload)), size)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestInlineStoreMissingPayload(t *testing.T) {
	store := NewInlineStore()
	_, _, err := store.Open(context.Background(), Ref{})
	assert.ErrorIs(t, err, ErrNotFound)
}
