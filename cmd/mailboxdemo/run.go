package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/mailbox"
	"github.com/gogpu/mailbox/backend/software"
	"github.com/gogpu/mailbox/backend/wgpu"
	"github.com/gogpu/mailbox/pacer"
	"github.com/gogpu/mailbox/render"
	"github.com/gogpu/mailbox/surface"
)

// baseInterval is the producer frame interval at 100% speed.
const baseInterval = time.Second / 60

// produce renders frames at the pacer's rate until ctx is done or the
// renderer is closed.
func produce(ctx context.Context, r *render.Renderer, p *pacer.Pacer, layout surface.Layout) error {
	log := mailbox.Logger()
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
		err := r.SwapBuffers(layout)
		if errors.Is(err, mailbox.ErrClosed) {
			return nil
		}
		if err != nil {
			log.Warn("demo: frame failed", "err", err)
		}
		timer.Reset(p.Interval(baseInterval))
	}
}

// displaySurface is a presentation target that counts its swaps.
type displaySurface interface {
	surface.Surface
	Swaps() uint64
}

// newDisplaySurface creates an offscreen surface on dev.
func newDisplaySurface(dev mailbox.Device, width, height uint32) (displaySurface, func(), error) {
	switch d := dev.(type) {
	case *software.Device:
		s, err := software.NewSurface(d, width, height)
		return s, func() {}, err
	case *wgpu.Device:
		s, err := wgpu.NewSurface(d, width, height)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Destroy, nil
	}
	return nil, nil, fmt.Errorf("no surface for device %T", dev)
}

// runHeadless drives producer and presenter goroutines until frames have
// been presented or ctx is done. frames <= 0 runs until ctx is done.
func runHeadless(ctx context.Context, cfg Config, r *render.Renderer, p *pacer.Pacer, s displaySurface) error {
	log := mailbox.Logger()
	window := gpucontext.NullWindowProvider{W: cfg.Width * cfg.Scale, H: cfg.Height * cfg.Scale}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return produce(ctx, r, p, cfg.Layout())
	})
	g.Go(func() error {
		tick := time.NewTicker(baseInterval)
		defer tick.Stop()
		err := render.NewPresenter(r, s, render.WithWindow(window)).Run(ctx, tick.C)
		if errors.Is(err, context.Canceled) || errors.Is(err, mailbox.ErrClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		defer r.Close()
		report := time.NewTicker(time.Second)
		defer report.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-report.C:
				st := r.Stats()
				log.Info("demo: stats",
					"rendered", st.Rendered, "presented", st.Presented,
					"skipped", st.Mailbox.Skipped, "reclaimed", st.Mailbox.Reclaimed,
					"swaps", s.Swaps())
				if cfg.Frames > 0 && s.Swaps() >= uint64(cfg.Frames) {
					cancel()
					return nil
				}
			}
		}
	})
	return g.Wait()
}
