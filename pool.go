package mailbox

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
)

// drainTimeout bounds how long teardown waits on each outstanding fence.
const drainTimeout = 100 * time.Millisecond

// Pool owns the slots of a mailbox and their GPU resources.
type Pool struct {
	dev    Device
	format gputypes.TextureFormat
	slots  []*Slot
}

func newPool(dev Device, n int, format gputypes.TextureFormat, owner *Mailbox) *Pool {
	p := &Pool{
		dev:    dev,
		format: format,
		slots:  make([]*Slot, n),
	}
	for i := range p.slots {
		p.slots[i] = &Slot{index: i, owner: owner}
	}
	return p
}

// Len returns the number of slots.
func (p *Pool) Len() int { return len(p.slots) }

// Device returns the device the pool allocates from.
func (p *Pool) Device() Device { return p.dev }

// Resize replaces the slot's color buffer and render target with ones of
// the given size and marks the slot stale, so the presenter rebuilds its
// present target before the next read. Must be called by the side that
// holds the slot, normally the producer.
//
// On failure the slot is left without resources (zero size), so the next
// frame rendered into it retries the allocation.
func (p *Pool) Resize(s *Slot, width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	if s.render != nil {
		p.dev.DestroyFramebuffer(s.render)
		s.render = nil
	}
	if s.color != nil {
		p.dev.DestroyColorBuffer(s.color)
		s.color = nil
	}
	s.width, s.height = 0, 0
	s.stale = true

	color, err := p.dev.CreateColorBuffer(width, height, p.format)
	if err != nil {
		return &ResourceError{Op: "create color buffer", Slot: s.index, Err: err}
	}
	render, err := p.dev.CreateFramebuffer(color)
	if err != nil {
		p.dev.DestroyColorBuffer(color)
		return &ResourceError{Op: "create render target", Slot: s.index, Err: err}
	}

	s.color = color
	s.render = render
	s.width, s.height = width, height
	return nil
}

// RebuildPresent recreates the slot's present target over its current
// color buffer and clears the stale flag. Called by the presenter.
func (p *Pool) RebuildPresent(s *Slot) error {
	if s.present != nil {
		p.dev.DestroyFramebuffer(s.present)
		s.present = nil
	}
	if s.color == nil {
		return &ResourceError{Op: "create present target", Slot: s.index, Err: ErrNoColorBuffer}
	}
	present, err := p.dev.CreateFramebuffer(s.color)
	if err != nil {
		return &ResourceError{Op: "create present target", Slot: s.index, Err: err}
	}
	s.present = present
	s.stale = false
	return nil
}

// allocate sizes every slot up front and builds its present target.
func (p *Pool) allocate(width, height uint32) error {
	for _, s := range p.slots {
		if err := p.Resize(s, width, height); err != nil {
			return err
		}
		if err := p.RebuildPresent(s); err != nil {
			return err
		}
	}
	return nil
}

// destroy drains every outstanding fence and releases all GPU resources.
// No slot may be queued or leased when it runs.
func (p *Pool) destroy() {
	log := Logger()
	for _, s := range p.slots {
		for _, f := range []Fence{s.SwapRenderFence(nil), s.SwapPresentFence(nil)} {
			if f == nil {
				continue
			}
			if ok, err := p.dev.ClientWaitFence(f, drainTimeout); err != nil || !ok {
				log.Debug("mailbox: fence did not signal before teardown",
					"slot", s.index, "err", err)
			}
			p.dev.DestroyFence(f)
		}
		if s.present != nil {
			p.dev.DestroyFramebuffer(s.present)
			s.present = nil
		}
		if s.render != nil {
			p.dev.DestroyFramebuffer(s.render)
			s.render = nil
		}
		if s.color != nil {
			p.dev.DestroyColorBuffer(s.color)
			s.color = nil
		}
		s.width, s.height = 0, 0
	}
}
