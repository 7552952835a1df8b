// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/mailbox"
	"github.com/gogpu/mailbox/surface"
)

// Renderer runs the producer and presenter halves of the pipeline.
//
// SwapBuffers must be called from a single producer goroutine and
// TryPresent from a single presenter goroutine; the two may run
// concurrently.
type Renderer struct {
	dev  mailbox.Device
	comp Compositor
	opts options

	mb *mailbox.Mailbox // nil in direct mode

	// produceMu and presentMu are held for a whole SwapBuffers and
	// TryPresent call, so Close can wait for in-flight frames.
	produceMu sync.Mutex
	presentMu sync.Mutex

	// frames[i] is the producer frame number last rendered into slot i.
	// Written while the producer holds the slot and read while the
	// presenter holds it.
	frames []uint64
	frame  uint64

	mu   sync.Mutex
	last Presentation
	ok   bool

	rendered  atomic.Uint64
	presented atomic.Uint64
	failed    atomic.Uint64
	closed    atomic.Bool
}

// Presentation describes the last frame put on a surface.
type Presentation struct {
	Frame uint64          // producer frame number
	Slot  int             // mailbox slot, -1 in direct mode
	Src   image.Rectangle // region of the slot read
	Dst   image.Rectangle // region of the surface written
}

// Stats combines renderer counters with the mailbox snapshot.
type Stats struct {
	Rendered  uint64
	Presented uint64
	Failed    uint64
	Mailbox   mailbox.Stats
}

// New creates a Renderer drawing with comp on dev.
func New(dev mailbox.Device, comp Compositor, opts ...Option) (*Renderer, error) {
	if dev == nil {
		return nil, mailbox.ErrNilDevice
	}
	if comp == nil {
		return nil, ErrNilCompositor
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Renderer{dev: dev, comp: comp, opts: o}
	if !o.presentThread {
		if o.surface == nil {
			return nil, ErrNoSurface
		}
		mailbox.Logger().Info("render: direct mode")
		return r, nil
	}

	mbOpts := []mailbox.Option{mailbox.WithPoolSize(o.poolSize)}
	if o.pacer != nil {
		mbOpts = append(mbOpts, mailbox.WithMaxWait(o.pacer.MaxWait()))
	}
	mb, err := mailbox.New(dev, append(mbOpts, o.mailboxOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if o.pacer != nil {
		o.pacer.Attach(mb)
	}
	r.mb = mb
	r.frames = make([]uint64, mb.Pool().Len())
	return r, nil
}

// Mailbox returns the underlying mailbox, or nil in direct mode.
func (r *Renderer) Mailbox() *mailbox.Mailbox { return r.mb }

// SwapBuffers renders one frame at layout and hands it to the presenter,
// or in direct mode draws and swaps the surface. An empty layout skips
// the frame.
//
// Resource errors are returned but leave the pipeline usable: the slot
// goes back to the free queue and the presenter keeps showing its last
// frame. mailbox.ErrClosed means the renderer was closed.
func (r *Renderer) SwapBuffers(layout surface.Layout) error {
	if r.closed.Load() {
		return mailbox.ErrClosed
	}
	if layout.Empty() {
		mailbox.Logger().Debug("render: empty layout, frame skipped")
		return nil
	}

	r.produceMu.Lock()
	defer r.produceMu.Unlock()
	r.frame++

	var err error
	if r.mb == nil {
		err = r.renderDirect(layout)
	} else {
		err = r.renderToMailbox(layout)
	}
	if err != nil && !errors.Is(err, mailbox.ErrClosed) {
		r.failed.Add(1)
	}
	return err
}

func (r *Renderer) renderDirect(layout surface.Layout) error {
	s := r.opts.surface
	if err := r.comp.Draw(s.Framebuffer(), layout); err != nil {
		return fmt.Errorf("render: draw: %w", err)
	}
	if err := r.dev.Flush(); err != nil {
		return fmt.Errorf("render: flush: %w", err)
	}
	if err := s.SwapBuffers(); err != nil {
		return fmt.Errorf("render: swap: %w", err)
	}
	r.rendered.Add(1)
	r.presented.Add(1)

	w, h := s.Size()
	r.record(Presentation{
		Frame: r.frame,
		Slot:  -1,
		Src:   layout.Rect(),
		Dst:   surface.Layout{Width: w, Height: h}.Rect(),
	})
	return nil
}

func (r *Renderer) renderToMailbox(layout surface.Layout) error {
	log := mailbox.Logger()

	slot, err := r.mb.GetRenderFrame()
	if err != nil {
		return err
	}

	// The presenter may still be reading this slot on the GPU.
	if f := slot.SwapPresentFence(nil); f != nil {
		ok, err := r.dev.ClientWaitFence(f, r.opts.fenceTimeout)
		if err != nil || !ok {
			log.Debug("render: present fence wait timed out",
				"slot", slot.Index(), "timeout", r.opts.fenceTimeout, "err", err)
		}
		r.dev.WaitFence(f)
		r.dev.DestroyFence(f)
	}

	if slot.Width() != layout.Width || slot.Height() != layout.Height {
		log.Debug("render: reloading render frame",
			"slot", slot.Index(), "layout", layout.String())
		if err := r.mb.Pool().Resize(slot, layout.Width, layout.Height); err != nil {
			log.Error("render: failed to resize slot", "slot", slot.Index(), "err", err)
			_ = r.mb.CancelRenderFrame(slot)
			return err
		}
	}

	if err := r.comp.Draw(slot.RenderTarget(), layout); err != nil {
		_ = r.mb.CancelRenderFrame(slot)
		return fmt.Errorf("render: draw: %w", err)
	}

	if old := slot.SwapRenderFence(nil); old != nil {
		r.dev.DestroyFence(old)
	}
	fence, err := r.dev.CreateFence()
	if err != nil {
		log.Warn("render: render fence not created", "slot", slot.Index(), "err", err)
	}
	slot.SwapRenderFence(fence)
	if err := r.dev.Flush(); err != nil {
		log.Warn("render: flush failed", "err", err)
	}

	r.frames[slot.Index()] = r.frame
	if err := r.mb.ReleaseRenderFrame(slot); err != nil {
		return err
	}
	r.rendered.Add(1)
	return nil
}

// TryPresent blits the newest rendered frame into s. It reports false
// without error when no new frame is ready; the surface then still holds
// the previous one. The caller swaps s.
func (r *Renderer) TryPresent(s surface.Surface) (bool, error) {
	if r.mb == nil || r.closed.Load() {
		return false, nil
	}
	r.presentMu.Lock()
	defer r.presentMu.Unlock()
	log := mailbox.Logger()

	slot, ok := r.mb.TryGetPresentFrame()
	if !ok {
		log.Debug("render: no frame ready")
		return false, nil
	}

	if slot.Stale() {
		log.Debug("render: reloading present frame", "slot", slot.Index())
		if err := r.mb.Pool().RebuildPresent(slot); err != nil {
			log.Error("render: failed to rebuild present target", "slot", slot.Index(), "err", err)
			r.failed.Add(1)
			return false, err
		}
	}

	if f := slot.RenderFence(); f != nil {
		r.dev.WaitFence(f)
	}

	w, h := s.Size()
	src := surface.Layout{Width: slot.Width(), Height: slot.Height()}
	dst := surface.Fit(src, surface.Layout{Width: w, Height: h}, r.opts.fit)
	if err := r.dev.Blit(s.Framebuffer(), slot.PresentTarget(), dst, src.Rect(), r.opts.filter); err != nil {
		log.Error("render: blit failed", "slot", slot.Index(), "err", err)
		r.failed.Add(1)
		return false, fmt.Errorf("render: blit: %w", err)
	}

	fence, err := r.dev.CreateFence()
	if err != nil {
		log.Warn("render: present fence not created", "slot", slot.Index(), "err", err)
	}
	if old := slot.SwapPresentFence(fence); old != nil {
		r.dev.DestroyFence(old)
	}
	if err := r.dev.Flush(); err != nil {
		log.Warn("render: flush failed", "err", err)
	}

	r.presented.Add(1)
	r.record(Presentation{
		Frame: r.frames[slot.Index()],
		Slot:  slot.Index(),
		Src:   src.Rect(),
		Dst:   dst,
	})
	return true, nil
}

// ResetPresent drops frames rendered but not yet presented.
func (r *Renderer) ResetPresent() {
	if r.mb != nil {
		r.mb.ResetPresent()
	}
}

// LastPresentation returns the most recent presentation, if any.
func (r *Renderer) LastPresentation() (Presentation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.ok
}

func (r *Renderer) record(p Presentation) {
	r.mu.Lock()
	r.last = p
	r.ok = true
	r.mu.Unlock()
}

// Stats returns current counters.
func (r *Renderer) Stats() Stats {
	st := Stats{
		Rendered:  r.rendered.Load(),
		Presented: r.presented.Load(),
		Failed:    r.failed.Load(),
	}
	if r.mb != nil {
		st.Mailbox = r.mb.Stats()
	}
	return st
}

// Close shuts the mailbox down, waking a blocked producer, waits for any
// frame in flight on either side and releases the slots' GPU resources.
// The device is not closed.
func (r *Renderer) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	if r.mb == nil {
		return nil
	}
	r.mb.Shutdown()

	r.produceMu.Lock()
	defer r.produceMu.Unlock()
	r.presentMu.Lock()
	defer r.presentMu.Unlock()
	return r.mb.Close()
}
