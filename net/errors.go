package net

import (
	"github.com/pkg/errors"
)

var (
	// ErrDecode is wrapped by every error caused by a malformed or truncated
	// message.
	ErrDecode = errors.New("decode error")

	// ErrTransport is wrapped by every error caused by the underlying
	// connection failing on send or receive.
	ErrTransport = errors.New("transport error")
)

// IsDecode reports whether err was caused by a malformed message.
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}

// IsTransport reports whether err was caused by the connection.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
