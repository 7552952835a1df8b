package software

import "errors"

var (
	// ErrDeviceClosed is returned for commands submitted after Close.
	ErrDeviceClosed = errors.New("software: device closed")

	// ErrUnsupportedFormat is returned for color formats other than RGBA8.
	ErrUnsupportedFormat = errors.New("software: unsupported color format")

	// ErrInvalidSize is returned for zero or oversized buffers.
	ErrInvalidSize = errors.New("software: invalid buffer size")

	// ErrForeignResource is returned when a resource from another backend
	// is passed in.
	ErrForeignResource = errors.New("software: resource not created by this backend")

	// ErrDestroyed is returned when a destroyed resource is used.
	ErrDestroyed = errors.New("software: resource destroyed")
)
