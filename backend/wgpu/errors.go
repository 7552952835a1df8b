package wgpu

import "errors"

var (
	// ErrNilDevice is returned by New without a HAL device or queue.
	ErrNilDevice = errors.New("wgpu: nil device or queue")

	// ErrNoAdapter is returned when no HAL backend exposes an adapter.
	ErrNoAdapter = errors.New("wgpu: no adapter available")

	// ErrForeignResource is returned when a resource from another backend
	// is passed in.
	ErrForeignResource = errors.New("wgpu: resource not created by this backend")

	// ErrDeviceClosed is returned after Close.
	ErrDeviceClosed = errors.New("wgpu: device closed")
)
