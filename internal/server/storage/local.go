package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/minsend/internal/common"
	"github.com/dmitrijs2005/minsend/internal/filex"
)

const tempPrefix = ".upload-"

// LocalStore keeps files directly under a root directory. Writes go to a
// temp file that is renamed into place, so readers never see a torn file
// and concurrent writers to one name resolve last-writer-wins.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filex.EnsureDir(root)
	if err != nil {
		return nil, err
	}
	return &LocalStore{root: abs}, nil
}

func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		names = append(names, e.Name())
	}

	return names, nil
}

func (s *LocalStore) Write(_ context.Context, name string, r io.Reader) error {
	if !filex.ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	tmp, err := os.CreateTemp(s.root, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.root, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}

	return nil
}

func (s *LocalStore) Read(_ context.Context, name string) ([]byte, error) {
	if !filex.ValidName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	b, err := os.ReadFile(filepath.Join(s.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	return b, nil
}

func (s *LocalStore) Delete(_ context.Context, name string) error {
	if !filex.ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	if err := os.Remove(filepath.Join(s.root, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("remove %s: %w", name, err)
	}

	return nil
}
