package software

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/mailbox"
	"github.com/gogpu/mailbox/surface"
)

var _ surface.Resizable = (*Surface)(nil)

// Surface is a double-buffered display target. The presenter blits into
// the back buffer; SwapBuffers publishes it as the front image that a
// window reads.
type Surface struct {
	dev *Device

	mu    sync.Mutex
	back  *Framebuffer
	front *image.RGBA

	swaps atomic.Uint64
}

// NewSurface creates a surface of the given size on dev.
func NewSurface(dev *Device, width, height uint32) (*Surface, error) {
	s := &Surface{dev: dev}
	if err := s.Resize(width, height); err != nil {
		return nil, err
	}
	return s, nil
}

// Resize replaces both buffers. Pixels are not preserved.
func (s *Surface) Resize(width, height uint32) error {
	c, err := s.dev.CreateColorBuffer(width, height, mailbox.DefaultFormat)
	if err != nil {
		return fmt.Errorf("software: resize surface: %w", err)
	}
	fb, err := s.dev.CreateFramebuffer(c)
	if err != nil {
		return fmt.Errorf("software: resize surface: %w", err)
	}

	s.mu.Lock()
	old := s.back
	s.back = fb.(*Framebuffer)
	s.front = image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	s.mu.Unlock()

	if old != nil {
		s.dev.DestroyFramebuffer(old)
		s.dev.DestroyColorBuffer(old.color)
	}
	return nil
}

// Framebuffer returns the back buffer.
func (s *Surface) Framebuffer() mailbox.Framebuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.back
}

// Size returns the surface size in pixels.
func (s *Surface) Size() (width, height uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.back.color.Width(), s.back.color.Height()
}

// SwapBuffers waits for queued work on the back buffer and copies it to
// the front image.
func (s *Surface) SwapBuffers() error {
	s.mu.Lock()
	back, front := s.back, s.front
	s.mu.Unlock()

	done := make(chan struct{})
	err := s.dev.submit(func() {
		defer close(done)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.front == front {
			copy(front.Pix, back.color.img.Pix)
		}
	})
	if err != nil {
		return err
	}
	<-done
	s.swaps.Add(1)
	return nil
}

// Front calls fn with the front image while holding the surface lock.
// fn must not retain the image.
func (s *Surface) Front(fn func(img *image.RGBA)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.front)
}

// Swaps returns how many times SwapBuffers completed.
func (s *Surface) Swaps() uint64 { return s.swaps.Load() }
