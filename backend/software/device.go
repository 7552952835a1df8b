package software

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/mailbox"
	"github.com/gogpu/mailbox/backend"
)

// MaxDimension is the largest width or height a buffer may have.
const MaxDimension = 16384

const queueDepth = 64

func init() {
	backend.Register(backend.NameSoftware, func() (mailbox.Device, error) {
		return New(), nil
	})
}

// Device is a CPU implementation of mailbox.Device.
type Device struct {
	// mu guards closed and the send side of cmds.
	mu     sync.RWMutex
	closed bool
	cmds   chan func()
	done   chan struct{}

	fenceID atomic.Uint64
	blits   atomic.Uint64
}

var _ mailbox.Device = (*Device)(nil)

// New starts a device and its queue goroutine. Call Close to stop it.
func New() *Device {
	d := &Device{
		cmds: make(chan func(), queueDepth),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Device) run() {
	defer close(d.done)
	for cmd := range d.cmds {
		cmd()
	}
}

func (d *Device) submit(cmd func()) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDeviceClosed
	}
	d.cmds <- cmd
	return nil
}

// Close drains the queue and stops the device. Fences still pending are
// signaled as the queue drains.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.cmds)
	d.mu.Unlock()

	<-d.done
	return nil
}

// CreateColorBuffer allocates an RGBA buffer.
func (d *Device) CreateColorBuffer(width, height uint32, format gputypes.TextureFormat) (mailbox.ColorBuffer, error) {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb, gputypes.TextureFormatUndefined:
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	if width == 0 || height == 0 || width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return &ColorBuffer{img: image.NewRGBA(image.Rect(0, 0, int(width), int(height)))}, nil
}

// DestroyColorBuffer marks c unusable. Commands already queued against it
// still complete.
func (d *Device) DestroyColorBuffer(c mailbox.ColorBuffer) {
	if cb, ok := c.(*ColorBuffer); ok {
		cb.destroyed.Store(true)
	}
}

// CreateFramebuffer attaches color to a new framebuffer.
func (d *Device) CreateFramebuffer(color mailbox.ColorBuffer) (mailbox.Framebuffer, error) {
	cb, ok := color.(*ColorBuffer)
	if !ok || cb == nil {
		return nil, ErrForeignResource
	}
	if cb.destroyed.Load() {
		return nil, ErrDestroyed
	}
	return &Framebuffer{color: cb}, nil
}

// DestroyFramebuffer marks fb unusable.
func (d *Device) DestroyFramebuffer(fb mailbox.Framebuffer) {
	if f, ok := fb.(*Framebuffer); ok {
		f.destroyed.Store(true)
	}
}

// CreateFence inserts a fence at the current end of the queue.
func (d *Device) CreateFence() (mailbox.Fence, error) {
	f := &Fence{id: d.fenceID.Add(1), done: make(chan struct{})}
	if err := d.submit(func() { close(f.done) }); err != nil {
		return nil, err
	}
	return f, nil
}

// WaitFence stalls the queue until f signals. The queue is in order, so
// this only matters for fences created on another device.
func (d *Device) WaitFence(f mailbox.Fence) {
	fence, ok := f.(*Fence)
	if !ok || fence.Signaled() {
		return
	}
	_ = d.submit(func() { <-fence.done })
}

// ClientWaitFence blocks until f signals or timeout elapses.
func (d *Device) ClientWaitFence(f mailbox.Fence, timeout time.Duration) (bool, error) {
	fence, ok := f.(*Fence)
	if !ok {
		return false, ErrForeignResource
	}
	if timeout <= 0 {
		return fence.Signaled(), nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-fence.done:
		return true, nil
	case <-timer.C:
		return false, nil
	}
}

// DestroyFence releases f. Fences hold no queue resources.
func (d *Device) DestroyFence(mailbox.Fence) {}

// Blit queues a copy from srcRect of src into dstRect of dst. Equal sizes
// copy pixels directly; otherwise the copy is scaled with filter.
func (d *Device) Blit(dst, src mailbox.Framebuffer, dstRect, srcRect image.Rectangle, filter mailbox.Filter) error {
	df, ok := dst.(*Framebuffer)
	if !ok || df == nil {
		return ErrForeignResource
	}
	sf, ok := src.(*Framebuffer)
	if !ok || sf == nil {
		return ErrForeignResource
	}
	if !df.usable() || !sf.usable() {
		return ErrDestroyed
	}
	if dstRect.Empty() || srcRect.Empty() {
		return nil
	}

	dimg, simg := df.color.img, sf.color.img
	return d.submit(func() {
		if dstRect.Size() == srcRect.Size() {
			draw.Copy(dimg, dstRect.Min, simg, srcRect, draw.Src, nil)
		} else {
			scaler(filter).Scale(dimg, dstRect, simg, srcRect, draw.Src, nil)
		}
		d.blits.Add(1)
	})
}

func scaler(f mailbox.Filter) draw.Scaler {
	if f == mailbox.FilterNearest {
		return draw.NearestNeighbor
	}
	return draw.ApproxBiLinear
}

// Flush is a no-op; commands start running as soon as they are queued.
func (d *Device) Flush() error { return nil }

// Draw queues fn to run against the framebuffer's pixels. Compositors use
// it so their drawing is ordered with blits and fences.
func (d *Device) Draw(fb mailbox.Framebuffer, fn func(dst *image.RGBA)) error {
	f, ok := fb.(*Framebuffer)
	if !ok || f == nil {
		return ErrForeignResource
	}
	if !f.usable() {
		return ErrDestroyed
	}
	img := f.color.img
	return d.submit(func() { fn(img) })
}

// Finish blocks until every queued command has run.
func (d *Device) Finish() error {
	done := make(chan struct{})
	if err := d.submit(func() { close(done) }); err != nil {
		return err
	}
	<-done
	return nil
}

// Blits returns the number of blits executed so far.
func (d *Device) Blits() uint64 { return d.blits.Load() }
