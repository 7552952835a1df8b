// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"context"
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/mailbox"
	"github.com/gogpu/mailbox/surface"
)

// Presenter runs the presentation loop for one surface.
type Presenter struct {
	r      *Renderer
	s      surface.Surface
	window gpucontext.WindowProvider
}

// PresenterOption configures a Presenter.
type PresenterOption func(*Presenter)

// WithWindow keeps the surface sized to the window and asks the window to
// redraw after each presented frame.
func WithWindow(w gpucontext.WindowProvider) PresenterOption {
	return func(p *Presenter) {
		p.window = w
	}
}

// NewPresenter creates a presenter that shows r's frames on s.
func NewPresenter(r *Renderer, s surface.Surface, opts ...PresenterOption) *Presenter {
	p := &Presenter{r: r, s: s}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run presents frames until ctx is done or the renderer is closed.
//
// With a non-nil tick, one present attempt is made per tick, which keeps
// presentation in step with the display refresh. With a nil tick the
// presenter wakes whenever the producer releases a frame.
//
// Present failures are logged and the loop continues with the previous
// frame on screen. Run returns ctx.Err() on cancellation and
// mailbox.ErrClosed when it wakes to find the renderer closed.
func (p *Presenter) Run(ctx context.Context, tick <-chan time.Time) error {
	mb := p.r.Mailbox()
	if mb == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	var ready <-chan struct{}
	if tick == nil {
		ready = mb.Ready()
	}
	log := mailbox.Logger()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
		case <-ready:
		}
		if p.r.closed.Load() {
			return mailbox.ErrClosed
		}

		if p.window != nil {
			if _, err := surface.Sync(p.s, surface.LayoutFromWindow(p.window)); err != nil {
				log.Warn("render: surface not resized", "err", err)
			}
		}

		presented, err := p.r.TryPresent(p.s)
		if err != nil {
			log.Error("render: present failed", "err", err)
			continue
		}
		if !presented {
			continue
		}
		if err := p.s.SwapBuffers(); err != nil {
			log.Error("render: swap failed", "err", err)
			continue
		}
		if p.window != nil {
			p.window.RequestRedraw()
		}
	}
}
