package client

import "errors"

var (
	ErrClosed      = errors.New("client closed")
	ErrInvalidName = errors.New("invalid file name")
)
