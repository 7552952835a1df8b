// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/mailbox"
	"github.com/gogpu/mailbox/backend/software"
	"github.com/gogpu/mailbox/pacer"
	"github.com/gogpu/mailbox/surface"
)

// frameColor encodes a frame number in the red channel.
func frameColor(n uint64) color.RGBA {
	return color.RGBA{R: uint8(n), G: 0x40, B: 0x80, A: 0xff}
}

// counter is a compositor that fills each frame with frameColor of its
// frame number.
type counter struct {
	dev *software.Device
	n   uint64
	err error
}

func (c *counter) Draw(dst mailbox.Framebuffer, _ surface.Layout) error {
	if c.err != nil {
		return c.err
	}
	c.n++
	col := frameColor(c.n)
	return c.dev.Draw(dst, func(img *image.RGBA) {
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = col.R, col.G, col.B, col.A
		}
	})
}

type fixture struct {
	dev  *software.Device
	comp *counter
	surf *software.Surface
	r    *Renderer
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	dev := software.New()
	t.Cleanup(func() { _ = dev.Close() })

	surf, err := software.NewSurface(dev, 8, 8)
	if err != nil {
		t.Fatalf("NewSurface() error = %v", err)
	}
	comp := &counter{dev: dev}
	r, err := New(dev, comp, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return &fixture{dev: dev, comp: comp, surf: surf, r: r}
}

func (f *fixture) frontPixel(t *testing.T, x, y int) color.RGBA {
	t.Helper()
	var c color.RGBA
	f.surf.Front(func(img *image.RGBA) { c = img.RGBAAt(x, y) })
	return c
}

func (f *fixture) present(t *testing.T) bool {
	t.Helper()
	ok, err := f.r.TryPresent(f.surf)
	if err != nil {
		t.Fatalf("TryPresent() error = %v", err)
	}
	if ok {
		if err := f.surf.SwapBuffers(); err != nil {
			t.Fatalf("SwapBuffers() error = %v", err)
		}
	}
	return ok
}

// TestNewValidation tests argument checking in New.
func TestNewValidation(t *testing.T) {
	dev := software.New()
	t.Cleanup(func() { _ = dev.Close() })
	comp := &counter{dev: dev}

	if _, err := New(nil, comp); !errors.Is(err, mailbox.ErrNilDevice) {
		t.Errorf("New(nil device) error = %v, want ErrNilDevice", err)
	}
	if _, err := New(dev, nil); !errors.Is(err, ErrNilCompositor) {
		t.Errorf("New(nil compositor) error = %v, want ErrNilCompositor", err)
	}
	if _, err := New(dev, comp, WithPresentThread(false)); !errors.Is(err, ErrNoSurface) {
		t.Errorf("New(direct, no surface) error = %v, want ErrNoSurface", err)
	}
	if _, err := New(dev, comp, WithPoolSize(1)); !errors.Is(err, mailbox.ErrInvalidPoolSize) {
		t.Errorf("New(pool 1) error = %v, want ErrInvalidPoolSize", err)
	}
}

// TestSwapAndPresent tests one frame end to end, scaled up to the surface.
func TestSwapAndPresent(t *testing.T) {
	f := newFixture(t)

	if f.present(t) {
		t.Fatal("TryPresent() = true before any frame")
	}
	if err := f.r.SwapBuffers(surface.Layout{Width: 4, Height: 4}); err != nil {
		t.Fatalf("SwapBuffers() error = %v", err)
	}
	if !f.present(t) {
		t.Fatal("TryPresent() = false after a frame")
	}
	if got := f.frontPixel(t, 7, 7); got != frameColor(1) {
		t.Errorf("front pixel = %v, want %v", got, frameColor(1))
	}

	p, ok := f.r.LastPresentation()
	if !ok {
		t.Fatal("LastPresentation() = false")
	}
	if p.Frame != 1 || p.Src != image.Rect(0, 0, 4, 4) || p.Dst != image.Rect(0, 0, 8, 8) {
		t.Errorf("LastPresentation() = %+v", p)
	}
	st := f.r.Stats()
	if st.Rendered != 1 || st.Presented != 1 || st.Failed != 0 || st.Mailbox.Retained != 1 {
		t.Errorf("Stats() = %+v", st)
	}

	// Nothing new: the surface keeps the old frame.
	if f.present(t) {
		t.Error("TryPresent() = true with no new frame")
	}
}

// TestPresentsNewest tests that the presenter skips to the latest frame.
func TestPresentsNewest(t *testing.T) {
	f := newFixture(t)
	layout := surface.Layout{Width: 8, Height: 8}
	for range 3 {
		if err := f.r.SwapBuffers(layout); err != nil {
			t.Fatalf("SwapBuffers() error = %v", err)
		}
	}
	f.present(t)

	if got := f.frontPixel(t, 0, 0); got != frameColor(3) {
		t.Errorf("front pixel = %v, want frame 3 %v", got, frameColor(3))
	}
	if p, _ := f.r.LastPresentation(); p.Frame != 3 {
		t.Errorf("presented frame %d, want 3", p.Frame)
	}
	if st := f.r.Stats(); st.Mailbox.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", st.Mailbox.Skipped)
	}
}

// TestLayoutChange tests that slots follow layout changes and the
// presenter reads the new size.
func TestLayoutChange(t *testing.T) {
	f := newFixture(t, WithPoolSize(2))
	layouts := []surface.Layout{{Width: 4, Height: 4}, {Width: 6, Height: 2}, {Width: 8, Height: 8}, {Width: 6, Height: 2}}
	for _, l := range layouts {
		if err := f.r.SwapBuffers(l); err != nil {
			t.Fatalf("SwapBuffers(%v) error = %v", l, err)
		}
		if !f.present(t) {
			t.Fatalf("TryPresent() after %v = false", l)
		}
		p, _ := f.r.LastPresentation()
		if p.Src != l.Rect() {
			t.Errorf("presented source %v, want %v", p.Src, l.Rect())
		}
		if got := f.frontPixel(t, 5, 5); got != frameColor(p.Frame) {
			t.Errorf("front pixel = %v, want %v", got, frameColor(p.Frame))
		}
	}
}

// TestAspectFit tests letterboxed presentation.
func TestAspectFit(t *testing.T) {
	f := newFixture(t, WithFit(surface.FitAspect), WithFilter(mailbox.FilterNearest))
	if err := f.r.SwapBuffers(surface.Layout{Width: 4, Height: 2}); err != nil {
		t.Fatalf("SwapBuffers() error = %v", err)
	}
	f.present(t)

	p, _ := f.r.LastPresentation()
	if want := image.Rect(0, 2, 8, 6); p.Dst != want {
		t.Errorf("Dst = %v, want %v", p.Dst, want)
	}
	if got := f.frontPixel(t, 0, 0); got == frameColor(1) {
		t.Error("letterbox bar was drawn over")
	}
	if got := f.frontPixel(t, 4, 4); got != frameColor(1) {
		t.Errorf("frame pixel = %v, want %v", got, frameColor(1))
	}
}

// TestResizeFailureKeepsRunning tests that a failed slot allocation is
// reported and the next frame still goes through.
func TestResizeFailureKeepsRunning(t *testing.T) {
	f := newFixture(t)
	if err := f.r.SwapBuffers(surface.Layout{Width: 4, Height: 4}); err != nil {
		t.Fatalf("SwapBuffers() error = %v", err)
	}
	f.present(t)

	err := f.r.SwapBuffers(surface.Layout{Width: software.MaxDimension + 1, Height: 4})
	var re *mailbox.ResourceError
	if !errors.As(err, &re) || !errors.Is(err, software.ErrInvalidSize) {
		t.Fatalf("SwapBuffers(oversized) error = %v, want ResourceError", err)
	}
	if f.present(t) {
		t.Error("TryPresent() = true after a failed frame")
	}
	if got := f.frontPixel(t, 1, 1); got != frameColor(1) {
		t.Errorf("front pixel = %v, want previous frame %v", got, frameColor(1))
	}

	if err := f.r.SwapBuffers(surface.Layout{Width: 4, Height: 4}); err != nil {
		t.Fatalf("SwapBuffers() after failure error = %v", err)
	}
	if !f.present(t) {
		t.Fatal("TryPresent() = false after recovery")
	}
	st := f.r.Stats()
	if st.Failed != 1 || st.Mailbox.Canceled != 1 {
		t.Errorf("Stats() = %+v, want one failure and one canceled slot", st)
	}
}

// TestDrawError tests that compositor errors cancel the frame.
func TestDrawError(t *testing.T) {
	f := newFixture(t)
	f.comp.err = errors.New("scene lost")

	if err := f.r.SwapBuffers(surface.Layout{Width: 4, Height: 4}); !errors.Is(err, f.comp.err) {
		t.Fatalf("SwapBuffers() error = %v, want %v", err, f.comp.err)
	}
	if st := f.r.Stats(); st.Mailbox.Free != mailbox.DefaultPoolSize {
		t.Errorf("free slots = %d, want %d", st.Mailbox.Free, mailbox.DefaultPoolSize)
	}
}

// TestEmptyLayout tests that a zero layout skips the frame.
func TestEmptyLayout(t *testing.T) {
	f := newFixture(t)
	if err := f.r.SwapBuffers(surface.Layout{}); err != nil {
		t.Fatalf("SwapBuffers(empty) error = %v", err)
	}
	if st := f.r.Stats(); st.Rendered != 0 || st.Mailbox.Released != 0 {
		t.Errorf("Stats() = %+v, want nothing rendered", st)
	}
}

// TestResetPresent tests dropping frames not yet shown.
func TestResetPresent(t *testing.T) {
	f := newFixture(t)
	_ = f.r.SwapBuffers(surface.Layout{Width: 4, Height: 4})
	f.r.ResetPresent()
	if f.present(t) {
		t.Error("TryPresent() = true after ResetPresent")
	}
}

// TestDirectMode tests drawing straight to the surface.
func TestDirectMode(t *testing.T) {
	dev := software.New()
	t.Cleanup(func() { _ = dev.Close() })
	surf, _ := software.NewSurface(dev, 4, 4)

	r, err := New(dev, &counter{dev: dev}, WithPresentThread(false), WithSurface(surf))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer r.Close()
	if r.Mailbox() != nil {
		t.Error("direct mode created a mailbox")
	}

	if err := r.SwapBuffers(surface.Layout{Width: 4, Height: 4}); err != nil {
		t.Fatalf("SwapBuffers() error = %v", err)
	}
	var got color.RGBA
	surf.Front(func(img *image.RGBA) { got = img.RGBAAt(2, 2) })
	if got != frameColor(1) {
		t.Errorf("front pixel = %v, want %v", got, frameColor(1))
	}
	if ok, err := r.TryPresent(surf); ok || err != nil {
		t.Errorf("TryPresent() in direct mode = %v, %v", ok, err)
	}
	if p, _ := r.LastPresentation(); p.Slot != -1 || p.Frame != 1 {
		t.Errorf("LastPresentation() = %+v", p)
	}
}

// TestPacer tests that the mailbox wait follows the speed limit.
func TestPacer(t *testing.T) {
	p := pacer.New(pacer.DefaultSpeedLimit, true)
	f := newFixture(t, WithPacer(p))
	if got := f.r.Mailbox().MaxWait(); got != 50*time.Millisecond {
		t.Errorf("MaxWait() = %v, want 50ms", got)
	}
	p.SetEnabled(false)
	if got := f.r.Mailbox().MaxWait(); got != 0 {
		t.Errorf("MaxWait() = %v, want 0", got)
	}
}

// TestCloseUnblocksProducer tests that Close ends a producer stuck waiting
// for a slot.
func TestCloseUnblocksProducer(t *testing.T) {
	f := newFixture(t, WithPoolSize(2), WithMailboxOptions(mailbox.WithMaxWait(time.Hour)))
	layout := surface.Layout{Width: 2, Height: 2}
	for range 2 {
		if err := f.r.SwapBuffers(layout); err != nil {
			t.Fatalf("SwapBuffers() error = %v", err)
		}
	}

	errc := make(chan error, 1)
	go func() { errc <- f.r.SwapBuffers(layout) }()
	time.Sleep(10 * time.Millisecond)

	if err := f.r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	select {
	case err := <-errc:
		if !errors.Is(err, mailbox.ErrClosed) {
			t.Errorf("SwapBuffers() error = %v, want ErrClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close() did not unblock SwapBuffers()")
	}
	if err := f.r.SwapBuffers(layout); !errors.Is(err, mailbox.ErrClosed) {
		t.Errorf("SwapBuffers() after Close error = %v, want ErrClosed", err)
	}
}

// TestPresenterRun tests the presenter loop against a running producer.
func TestPresenterRun(t *testing.T) {
	for _, name := range []string{"ticker", "ready"} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, WithPacer(pacer.New(400, true)))
			window := gpucontext.NullWindowProvider{W: 6, H: 5}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for ctx.Err() == nil {
					err := f.r.SwapBuffers(surface.Layout{Width: 4, Height: 4})
					if errors.Is(err, mailbox.ErrClosed) {
						return
					}
					time.Sleep(time.Millisecond)
				}
			}()

			var tick <-chan time.Time
			if name == "ticker" {
				ticker := time.NewTicker(2 * time.Millisecond)
				defer ticker.Stop()
				tick = ticker.C
			}

			p := NewPresenter(f.r, f.surf, WithWindow(window))
			runErr := make(chan error, 1)
			go func() { runErr <- p.Run(ctx, tick) }()

			deadline := time.Now().Add(5 * time.Second)
			for f.surf.Swaps() < 5 {
				if time.Now().After(deadline) {
					t.Fatalf("only %d swaps before deadline", f.surf.Swaps())
				}
				time.Sleep(time.Millisecond)
			}
			cancel()
			if err := <-runErr; !errors.Is(err, context.Canceled) {
				t.Errorf("Run() error = %v, want context.Canceled", err)
			}
			wg.Wait()

			if w, h := f.surf.Size(); w != 6 || h != 5 {
				t.Errorf("surface size = %dx%d, want window size 6x5", w, h)
			}
		})
	}
}
