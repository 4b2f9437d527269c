package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/minsend/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	return s
}

func TestNewLocalStore_CreatesRoot(t *testing.T) {
	s := newLocal(t)
	fi, err := os.Stat(s.Root())
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
	assert.True(t, filepath.IsAbs(s.Root()))
}

func TestLocalStore_WriteReadListDelete(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, s.Write(ctx, "b.txt", strings.NewReader("bee")))
	require.NoError(t, s.Write(ctx, "a.txt", strings.NewReader("ay")))

	names, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)

	got, err := s.Read(ctx, "b.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("bee"), got)

	require.NoError(t, s.Delete(ctx, "b.txt"))
	require.ErrorIs(t, s.Delete(ctx, "b.txt"), common.ErrorNotFound)

	_, err = s.Read(ctx, "b.txt")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLocalStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	require.NoError(t, s.Write(ctx, "f", strings.NewReader("first version")))
	require.NoError(t, s.Write(ctx, "f", strings.NewReader("v2")))

	got, err := s.Read(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestLocalStore_EmptyFile(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	require.NoError(t, s.Write(ctx, "empty", bytes.NewReader(nil)))
	got, err := s.Read(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, got)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestLocalStore_FailedWriteLeavesNothing(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	require.Error(t, s.Write(ctx, "f", failingReader{}))

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file must be cleaned up")
}

func TestLocalStore_HidesTempAndDirs(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), tempPrefix+"123"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(s.Root(), "sub"), 0o700))
	require.NoError(t, s.Write(ctx, "real", strings.NewReader("x")))

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"real"}, names)
}

func TestLocalStore_InvalidNames(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	for _, name := range []string{"", ".", "..", "../escape", "a/b", `a\b`} {
		require.ErrorIs(t, s.Write(ctx, name, strings.NewReader("x")), ErrInvalidName, name)
		require.ErrorIs(t, s.Delete(ctx, name), ErrInvalidName, name)
		_, err := s.Read(ctx, name)
		require.ErrorIs(t, err, ErrInvalidName, name)
	}

	_, err := os.Stat(filepath.Join(filepath.Dir(s.Root()), "escape"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	s := newLocal(t)
	require.NoError(t, os.Remove(s.Root()))

	_, err := s.List(context.Background())
	require.Error(t, err)
}

func TestLocalStore_ConcurrentWritersSameName(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	payloads := []string{
		strings.Repeat("a", 4096),
		strings.Repeat("b", 4096),
		strings.Repeat("c", 4096),
	}

	var wg sync.WaitGroup
	for _, p := range payloads {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			assert.NoError(t, s.Write(ctx, "race", strings.NewReader(p)))
		}(p)
	}
	wg.Wait()

	got, err := s.Read(ctx, "race")
	require.NoError(t, err)
	assert.Contains(t, payloads, string(got), "content must be one complete upload")
}
