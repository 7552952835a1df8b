package mailbox

import (
	"errors"
	"image"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
)

var errOutOfMemory = errors.New("fake: out of memory")

// fakeDevice counts live resources and can be told to fail allocations.
type fakeDevice struct {
	mu           sync.Mutex
	colors       int
	framebuffers int
	fences       int
	waits        int
	blits        int

	// colorBudget is the number of color buffers that may still be
	// created; negative means unlimited.
	colorBudget int
}

type fakeColor struct{ w, h uint32 }

func (c *fakeColor) Width() uint32  { return c.w }
func (c *fakeColor) Height() uint32 { return c.h }

type fakeFramebuffer struct{ color *fakeColor }

func (f *fakeFramebuffer) ColorBuffer() ColorBuffer { return f.color }

type fakeFence struct{ id int }

func newFakeDevice() *fakeDevice {
	return &fakeDevice{colorBudget: -1}
}

func (d *fakeDevice) CreateColorBuffer(w, h uint32, _ gputypes.TextureFormat) (ColorBuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.colorBudget == 0 {
		return nil, errOutOfMemory
	}
	if d.colorBudget > 0 {
		d.colorBudget--
	}
	d.colors++
	return &fakeColor{w: w, h: h}, nil
}

func (d *fakeDevice) DestroyColorBuffer(ColorBuffer) {
	d.mu.Lock()
	d.colors--
	d.mu.Unlock()
}

func (d *fakeDevice) CreateFramebuffer(c ColorBuffer) (Framebuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.framebuffers++
	return &fakeFramebuffer{color: c.(*fakeColor)}, nil
}

func (d *fakeDevice) DestroyFramebuffer(Framebuffer) {
	d.mu.Lock()
	d.framebuffers--
	d.mu.Unlock()
}

func (d *fakeDevice) CreateFence() (Fence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fences++
	return &fakeFence{id: d.fences}, nil
}

func (d *fakeDevice) WaitFence(Fence) {}

func (d *fakeDevice) ClientWaitFence(Fence, time.Duration) (bool, error) {
	d.mu.Lock()
	d.waits++
	d.mu.Unlock()
	return true, nil
}

func (d *fakeDevice) DestroyFence(Fence) {
	d.mu.Lock()
	d.fences--
	d.mu.Unlock()
}

func (d *fakeDevice) Blit(_, _ Framebuffer, _, _ image.Rectangle, _ Filter) error {
	d.mu.Lock()
	d.blits++
	d.mu.Unlock()
	return nil
}

func (d *fakeDevice) Flush() error { return nil }

func (d *fakeDevice) live() (colors, framebuffers, fences int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.colors, d.framebuffers, d.fences
}
