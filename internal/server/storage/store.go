// Package storage holds the flat file namespace served to clients.
package storage

import (
	"context"
	"errors"
	"io"
)

var ErrInvalidName = errors.New("invalid file name")

// Store is a flat namespace of named files. Missing files are reported as
// common.ErrorNotFound.
type Store interface {
	List(ctx context.Context) ([]string, error)
	Write(ctx context.Context, name string, r io.Reader) error
	Read(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
}
