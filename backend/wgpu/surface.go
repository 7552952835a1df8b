package wgpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/mailbox"
	"github.com/gogpu/mailbox/surface"
)

var _ surface.Resizable = (*Surface)(nil)

// Surface is an offscreen display target backed by one texture. It stands
// in for a swapchain in headless runs; SwapBuffers submits pending work
// and counts frames.
type Surface struct {
	dev *Device

	mu sync.Mutex
	fb *Framebuffer

	swaps atomic.Uint64
}

// NewSurface creates an offscreen surface of the given size.
func NewSurface(dev *Device, width, height uint32) (*Surface, error) {
	s := &Surface{dev: dev}
	if err := s.Resize(width, height); err != nil {
		return nil, err
	}
	return s, nil
}

// Resize replaces the backing texture.
func (s *Surface) Resize(width, height uint32) error {
	c, err := s.dev.CreateColorBuffer(width, height, mailbox.DefaultFormat)
	if err != nil {
		return fmt.Errorf("wgpu: resize surface: %w", err)
	}
	fb, err := s.dev.CreateFramebuffer(c)
	if err != nil {
		s.dev.DestroyColorBuffer(c)
		return fmt.Errorf("wgpu: resize surface: %w", err)
	}

	s.mu.Lock()
	old := s.fb
	s.fb = fb.(*Framebuffer)
	s.mu.Unlock()

	if old != nil {
		s.release(old)
	}
	return nil
}

func (s *Surface) release(fb *Framebuffer) {
	color := fb.color
	s.dev.DestroyFramebuffer(fb)
	s.dev.DestroyColorBuffer(color)
}

// Framebuffer returns the backing framebuffer.
func (s *Surface) Framebuffer() mailbox.Framebuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fb
}

// Size returns the texture size.
func (s *Surface) Size() (width, height uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fb.color.width, s.fb.color.height
}

// SwapBuffers flushes the device.
func (s *Surface) SwapBuffers() error {
	if err := s.dev.Flush(); err != nil {
		return err
	}
	s.swaps.Add(1)
	return nil
}

// Swaps returns how many times SwapBuffers completed.
func (s *Surface) Swaps() uint64 { return s.swaps.Load() }

// Destroy releases the backing texture.
func (s *Surface) Destroy() {
	s.mu.Lock()
	fb := s.fb
	s.fb = nil
	s.mu.Unlock()
	if fb != nil {
		s.release(fb)
	}
}
