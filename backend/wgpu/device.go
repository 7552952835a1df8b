package wgpu

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/mailbox"
	"github.com/gogpu/mailbox/backend"
)

const (
	colorUsage = gputypes.TextureUsageRenderAttachment |
		gputypes.TextureUsageTextureBinding |
		gputypes.TextureUsageCopySrc |
		gputypes.TextureUsageCopyDst

	pollMin = 50 * time.Microsecond
	pollMax = 2 * time.Millisecond
)

func init() {
	backend.Register(backend.NameWGPU, func() (mailbox.Device, error) {
		return OpenDefault()
	})
}

// Device adapts a HAL device and queue to mailbox.Device.
type Device struct {
	device hal.Device
	queue  hal.Queue

	// Set when the device was opened by this package and must be
	// destroyed on Close.
	instance hal.Instance
	adapter  hal.Adapter
	info     gputypes.AdapterInfo

	// mu serializes queue access and guards the fields below.
	mu      sync.Mutex
	pending []pending
	closed  bool
}

var _ mailbox.Device = (*Device)(nil)

// New wraps an existing HAL device and queue. The caller keeps ownership
// of both; Close only releases resources created here.
func New(device hal.Device, queue hal.Queue) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	return &Device{device: device, queue: queue}, nil
}

// Open creates an instance on b and opens its first adapter.
func Open(b hal.Backend) (*Device, error) {
	inst, err := b.CreateInstance(&hal.InstanceDescriptor{Backends: gputypes.BackendsPrimary})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %v instance: %w", b.Variant(), err)
	}
	adapters := inst.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		inst.Destroy()
		return nil, fmt.Errorf("%w: %v", ErrNoAdapter, b.Variant())
	}
	exposed := adapters[0]
	od, err := exposed.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		exposed.Adapter.Destroy()
		inst.Destroy()
		return nil, fmt.Errorf("wgpu: open adapter %q: %w", exposed.Info.Name, err)
	}

	mailbox.Logger().Info("wgpu: adapter opened",
		"backend", b.Variant(), "adapter", exposed.Info.Name, "type", exposed.Info.DeviceType)
	return &Device{
		device:   od.Device,
		queue:    od.Queue,
		instance: inst,
		adapter:  exposed.Adapter,
		info:     exposed.Info,
	}, nil
}

// OpenDefault opens the first registered HAL backend that yields a
// device, trying real backends before the empty (noop) one.
func OpenDefault() (*Device, error) {
	variants := hal.AvailableBackends()
	var fallback hal.Backend
	var lastErr error
	for _, v := range variants {
		b, ok := hal.GetBackend(v)
		if !ok {
			continue
		}
		if v == gputypes.BackendEmpty {
			fallback = b
			continue
		}
		d, err := Open(b)
		if err == nil {
			return d, nil
		}
		lastErr = err
	}
	if fallback != nil {
		return Open(fallback)
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNoAdapter
}

// Info returns adapter details when the device was opened by this
// package.
func (d *Device) Info() gputypes.AdapterInfo { return d.info }

// CreateColorBuffer creates a 2D texture usable as render attachment,
// sampled texture and copy source or destination.
func (d *Device) CreateColorBuffer(width, height uint32, format gputypes.TextureFormat) (mailbox.ColorBuffer, error) {
	if format == gputypes.TextureFormatUndefined {
		format = mailbox.DefaultFormat
	}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "mailbox-color",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         colorUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture %dx%d: %w", width, height, err)
	}
	return &ColorBuffer{tex: tex, width: width, height: height, format: format, owned: true}, nil
}

// WrapTexture adopts an externally owned texture, such as a swapchain
// image, as a color buffer. DestroyColorBuffer will not destroy it.
func (d *Device) WrapTexture(tex hal.Texture, width, height uint32, format gputypes.TextureFormat) *ColorBuffer {
	return &ColorBuffer{tex: tex, width: width, height: height, format: format}
}

// DestroyColorBuffer destroys the texture if this device created it.
func (d *Device) DestroyColorBuffer(c mailbox.ColorBuffer) {
	cb, ok := c.(*ColorBuffer)
	if !ok || cb == nil || !cb.owned || cb.tex == nil {
		return
	}
	d.device.DestroyTexture(cb.tex)
	cb.tex = nil
}

// CreateFramebuffer creates a view over color.
func (d *Device) CreateFramebuffer(color mailbox.ColorBuffer) (mailbox.Framebuffer, error) {
	cb, ok := color.(*ColorBuffer)
	if !ok || cb == nil || cb.tex == nil {
		return nil, ErrForeignResource
	}
	view, err := d.device.CreateTextureView(cb.tex, &hal.TextureViewDescriptor{
		Label:           "mailbox-view",
		Format:          cb.format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture view: %w", err)
	}
	return &Framebuffer{color: cb, view: view}, nil
}

// DestroyFramebuffer destroys the view.
func (d *Device) DestroyFramebuffer(fb mailbox.Framebuffer) {
	f, ok := fb.(*Framebuffer)
	if !ok || f == nil || f.view == nil {
		return
	}
	d.device.DestroyTextureView(f.view)
	f.view = nil
}

// CreateFence submits an empty batch and returns its index. The fence
// signals once the queue has completed everything submitted before it.
func (d *Device) CreateFence() (mailbox.Fence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}
	idx, err := d.queue.Submit(nil)
	if err != nil {
		return nil, fmt.Errorf("wgpu: submit fence: %w", err)
	}
	return &Fence{index: idx}, nil
}

// WaitFence is a no-op: the single queue already orders later commands
// after the fence.
func (d *Device) WaitFence(mailbox.Fence) {}

// ClientWaitFence polls the queue until f completes or timeout elapses.
func (d *Device) ClientWaitFence(f mailbox.Fence, timeout time.Duration) (bool, error) {
	fence, ok := f.(*Fence)
	if !ok || fence == nil {
		return false, ErrForeignResource
	}
	deadline := time.Now().Add(timeout)
	backoff := pollMin
	for {
		if d.completed() >= fence.index {
			return true, nil
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		time.Sleep(min(backoff, time.Until(deadline)))
		backoff = min(backoff*2, pollMax)
	}
}

// DestroyFence releases f. Submission indices hold no HAL resources.
func (d *Device) DestroyFence(mailbox.Fence) {}

// Blit records a copy of srcRect into dstRect. Sizes that differ are
// clipped to the overlap; filter is ignored.
func (d *Device) Blit(dst, src mailbox.Framebuffer, dstRect, srcRect image.Rectangle, filter mailbox.Filter) error {
	df, ok := dst.(*Framebuffer)
	if !ok || df == nil || df.color.tex == nil {
		return ErrForeignResource
	}
	sf, ok := src.(*Framebuffer)
	if !ok || sf == nil || sf.color.tex == nil {
		return ErrForeignResource
	}

	w := min(dstRect.Dx(), srcRect.Dx())
	h := min(dstRect.Dy(), srcRect.Dy())
	if w <= 0 || h <= 0 {
		return nil
	}
	if dstRect.Size() != srcRect.Size() {
		mailbox.Logger().Debug("wgpu: unscaled blit",
			"src", srcRect, "dst", dstRect, "filter", filter)
	}

	srcTex, dstTex := sf.color.tex, df.color.tex
	return d.Encode("mailbox-blit", func(enc hal.CommandEncoder) error {
		enc.TransitionTextures([]hal.TextureBarrier{
			barrier(srcTex, gputypes.TextureUsageRenderAttachment, gputypes.TextureUsageCopySrc),
			barrier(dstTex, gputypes.TextureUsageRenderAttachment, gputypes.TextureUsageCopyDst),
		})
		enc.CopyTextureToTexture(srcTex, dstTex, []hal.TextureCopy{{
			SrcBase: hal.ImageCopyTexture{
				Texture: srcTex,
				Origin:  hal.Origin3D{X: uint32(srcRect.Min.X), Y: uint32(srcRect.Min.Y)},
				Aspect:  gputypes.TextureAspectAll,
			},
			DstBase: hal.ImageCopyTexture{
				Texture: dstTex,
				Origin:  hal.Origin3D{X: uint32(dstRect.Min.X), Y: uint32(dstRect.Min.Y)},
				Aspect:  gputypes.TextureAspectAll,
			},
			Size: hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		}})
		enc.TransitionTextures([]hal.TextureBarrier{
			barrier(srcTex, gputypes.TextureUsageCopySrc, gputypes.TextureUsageRenderAttachment),
			barrier(dstTex, gputypes.TextureUsageCopyDst, gputypes.TextureUsageRenderAttachment),
		})
		return nil
	})
}

func barrier(tex hal.Texture, from, to gputypes.TextureUsage) hal.TextureBarrier {
	return hal.TextureBarrier{
		Texture: tex,
		Range:   hal.TextureRange{Aspect: gputypes.TextureAspectAll},
		Usage:   hal.TextureUsageTransition{OldUsage: from, NewUsage: to},
	}
}

// Encode records commands with record and submits them. Compositors use it
// to draw into a slot's render target so the work is covered by the
// fences this device creates.
func (d *Device) Encode(label string, record func(enc hal.CommandEncoder) error) error {
	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		enc.Destroy()
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	if err := record(enc); err != nil {
		enc.DiscardEncoding()
		enc.Destroy()
		return err
	}
	cmd, err := enc.EndEncoding()
	if err != nil {
		enc.Destroy()
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.device.FreeCommandBuffer(cmd)
		enc.Destroy()
		return ErrDeviceClosed
	}
	idx, err := d.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		d.device.FreeCommandBuffer(cmd)
		enc.Destroy()
		return fmt.Errorf("wgpu: submit %s: %w", label, err)
	}
	d.pending = append(d.pending, pending{index: idx, enc: enc, cmd: cmd})
	return nil
}

// Flush frees command buffers the queue has finished with. HAL submission
// already hands work to the GPU.
func (d *Device) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reclaimLocked(d.queue.PollCompleted())
	return nil
}

// Pending returns the number of submitted command buffers not yet freed.
func (d *Device) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Close waits for the GPU, frees outstanding command buffers and, if the
// device was opened by this package, destroys it.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	err := d.device.WaitIdle()
	d.reclaimLocked(^uint64(0))
	d.mu.Unlock()

	if d.instance != nil {
		d.device.Destroy()
		d.adapter.Destroy()
		d.instance.Destroy()
	}
	if err != nil {
		return fmt.Errorf("wgpu: wait idle: %w", err)
	}
	return nil
}

func (d *Device) completed() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.PollCompleted()
}

func (d *Device) reclaimLocked(done uint64) {
	kept := d.pending[:0]
	for _, p := range d.pending {
		if p.index > done {
			kept = append(kept, p)
			continue
		}
		d.device.FreeCommandBuffer(p.cmd)
		p.enc.Destroy()
	}
	clear(d.pending[len(kept):])
	d.pending = kept
}

// Clear fills fb with c in a render pass.
func (d *Device) Clear(fb mailbox.Framebuffer, c gputypes.Color) error {
	f, ok := fb.(*Framebuffer)
	if !ok || f == nil || f.view == nil {
		return ErrForeignResource
	}
	return d.Encode("mailbox-clear", func(enc hal.CommandEncoder) error {
		pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "mailbox-clear",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:       f.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: c,
			}},
		})
		pass.End()
		return nil
	})
}
