package backend

import (
	"errors"

	"github.com/gogpu/mailbox"
)

// Backend names.
const (
	// NameSoftware runs the command stream on a goroutine over image.RGBA.
	NameSoftware = "software"
	// NameWGPU drives a gogpu/wgpu HAL device.
	NameWGPU = "wgpu"
)

var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNoBackend is returned by Default when no backend could be
	// opened.
	ErrNoBackend = errors.New("backend: no backend could be opened")
)

// Factory opens a new device.
type Factory func() (mailbox.Device, error)
