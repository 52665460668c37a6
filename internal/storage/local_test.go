package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough for content sniffing
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, 5, 4, 9, 15, 0, 0, time.UTC) }
	return s
}

func TestSaveSignature(t *testing.T) {
	s := newTestStorage(t)

	path, err := s.SaveSignature(context.Background(), pngHeader, "short_sign")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(path, "signatures/short_sign/2026/05/"), path)
	assert.Equal(t, ".png", filepath.Ext(path))
	assert.True(t, s.Exists(path))

	f, err := s.Download(path)
	require.NoError(t, err)
	defer f.Close()
	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(len(pngHeader)), info.Size())
}

func TestSaveSignature_Rejects(t *testing.T) {
	s := newTestStorage(t)

	tests := []struct {
		name  string
		image []byte
	}{
		{name: "empty", image: nil},
		{name: "not an image", image: []byte("%PDF-1.4 not a signature")},
		{name: "too large", image: append(append([]byte(nil), pngHeader...), make([]byte, MaxFileSize())...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SaveSignature(context.Background(), tt.image, "check")
			assert.ErrorIs(t, err, ErrInvalidContent)
		})
	}
}

func TestSaveSignature_SanitizesKind(t *testing.T) {
	s := newTestStorage(t)

	path, err := s.SaveSignature(context.Background(), pngHeader, "../../etc")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "signatures/______etc/"), path)
}

func TestResolve_RefusesEscape(t *testing.T) {
	s := newTestStorage(t)

	assert.False(t, s.Exists("../outside.png"))
	assert.ErrorIs(t, s.Delete("../../outside.png"), ErrInvalidContent)

	path, err := s.UploadFromBytes([]byte("x"), "note.txt", "misc")
	require.NoError(t, err)
	require.NoError(t, s.Delete(path))
	_, err = os.Stat(filepath.Join(s.basePath, path))
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteSignature(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	path, err := s.SaveSignature(ctx, pngHeader, "deicing")
	require.NoError(t, err)
	require.NoError(t, s.DeleteSignature(ctx, path))
	assert.False(t, s.Exists(path))

	other, err := s.UploadFromBytes([]byte("x"), "note.txt", "misc")
	require.NoError(t, err)
	assert.ErrorIs(t, s.DeleteSignature(ctx, other), ErrInvalidContent)
	assert.True(t, s.Exists(other))
}
