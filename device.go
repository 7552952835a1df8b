package mailbox

import (
	"image"
	"time"

	"github.com/gogpu/gputypes"
)

// Filter selects how a blit samples when source and destination differ in
// size.
type Filter uint8

const (
	// FilterLinear blends neighboring texels. Used for presentation.
	FilterLinear Filter = iota
	// FilterNearest picks the closest texel.
	FilterNearest
)

// String returns the filter name.
func (f Filter) String() string {
	switch f {
	case FilterLinear:
		return "linear"
	case FilterNearest:
		return "nearest"
	default:
		return "unknown"
	}
}

// ColorBuffer is GPU storage for a slot's pixels.
type ColorBuffer interface {
	Width() uint32
	Height() uint32
}

// Framebuffer is a render or read target with one color attachment.
// A slot's render and present targets share the same ColorBuffer.
type Framebuffer interface {
	ColorBuffer() ColorBuffer
}

// Fence marks a point in a Device's command stream. Fences are opaque;
// only the Device that created one can wait on or destroy it.
type Fence any

// Device is the GPU command interface the mailbox and renderer drive.
//
// Creation and destruction calls may be made from any goroutine. Commands
// (Blit, fences) are ordered per Device in submission order.
type Device interface {
	CreateColorBuffer(width, height uint32, format gputypes.TextureFormat) (ColorBuffer, error)
	DestroyColorBuffer(c ColorBuffer)

	CreateFramebuffer(color ColorBuffer) (Framebuffer, error)
	DestroyFramebuffer(fb Framebuffer)

	// CreateFence inserts a fence after every command submitted so far.
	CreateFence() (Fence, error)
	// WaitFence makes later GPU commands wait for f. It does not block
	// the caller.
	WaitFence(f Fence)
	// ClientWaitFence blocks the caller until f signals or timeout
	// elapses, and reports whether it signaled.
	ClientWaitFence(f Fence, timeout time.Duration) (bool, error)
	DestroyFence(f Fence)

	// Blit copies srcRect of src into dstRect of dst. Backends that can
	// scale do so with filter; others copy the overlapping region.
	Blit(dst, src Framebuffer, dstRect, srcRect image.Rectangle, filter Filter) error

	// Flush pushes pending commands to the GPU without waiting.
	Flush() error
}
