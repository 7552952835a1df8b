package software

import (
	"image"
	"sync/atomic"

	"github.com/gogpu/mailbox"
)

// ColorBuffer is an RGBA pixel buffer.
type ColorBuffer struct {
	img       *image.RGBA
	destroyed atomic.Bool
}

// Width returns the buffer width in pixels.
func (c *ColorBuffer) Width() uint32 { return uint32(c.img.Rect.Dx()) }

// Height returns the buffer height in pixels.
func (c *ColorBuffer) Height() uint32 { return uint32(c.img.Rect.Dy()) }

// Image returns the backing image. Reading it outside the device queue
// races with pending commands; call Device.Finish first.
func (c *ColorBuffer) Image() *image.RGBA { return c.img }

// Framebuffer attaches a ColorBuffer as a render or read target.
type Framebuffer struct {
	color     *ColorBuffer
	destroyed atomic.Bool
}

// ColorBuffer returns the attachment.
func (f *Framebuffer) ColorBuffer() mailbox.ColorBuffer { return f.color }

// Image returns the attachment's backing image.
func (f *Framebuffer) Image() *image.RGBA { return f.color.img }

func (f *Framebuffer) usable() bool {
	return !f.destroyed.Load() && !f.color.destroyed.Load()
}

// Fence is a point in the device queue. done is closed when the queue
// reaches it.
type Fence struct {
	id   uint64
	done chan struct{}
}

// Signaled reports whether the queue has passed the fence.
func (f *Fence) Signaled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
