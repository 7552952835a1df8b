package main

import (
	"context"
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gogpu/mailbox"
	"github.com/gogpu/mailbox/backend/software"
	"github.com/gogpu/mailbox/pacer"
	"github.com/gogpu/mailbox/render"
	"github.com/gogpu/mailbox/surface"
)

// speedStep is the speed limit change per key press, in percent.
const speedStep = 10

// ebitenWindow reports the ebiten window size as passed to Layout.
type ebitenWindow struct {
	width, height int
}

func (w *ebitenWindow) Size() (int, int) { return w.width, w.height }

func (w *ebitenWindow) ScaleFactor() float64 { return ebiten.Monitor().DeviceScaleFactor() }

// RequestRedraw is a no-op; ebiten draws every tick.
func (w *ebitenWindow) RequestRedraw() {}

// game presents mailbox frames in an ebiten window. Draw is the present
// thread: it takes the newest frame, blits it into a software surface and
// uploads the surface to the screen.
type game struct {
	r      *render.Renderer
	surf   *software.Surface
	pacer  *pacer.Pacer
	comp   frameCounter
	window ebitenWindow
	done   <-chan struct{}
	cancel context.CancelFunc

	tex  *ebiten.Image
	pix  []byte
	last render.Stats
}

// newGame returns a game that quits when ctx is done and calls cancel
// when the user quits.
func newGame(ctx context.Context, cancel context.CancelFunc, r *render.Renderer, surf *software.Surface, p *pacer.Pacer, comp frameCounter) *game {
	return &game{r: r, surf: surf, pacer: p, comp: comp, done: ctx.Done(), cancel: cancel}
}

func (g *game) Update() error {
	select {
	case <-g.done:
		return ebiten.Termination
	default:
	}
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		g.cancel()
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyKPAdd):
		g.pacer.SetSpeedLimit(g.pacer.SpeedLimit() + speedStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract):
		g.pacer.SetSpeedLimit(max(g.pacer.SpeedLimit()-speedStep, speedStep))
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		g.pacer.SetEnabled(!g.pacer.Enabled())
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.r.ResetPresent()
		mailbox.Logger().Info("demo: present queue reset")
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	log := mailbox.Logger()
	layout := surface.LayoutFromWindow(&g.window)
	if _, err := surface.Sync(g.surf, layout); err != nil {
		log.Warn("demo: surface not resized", "layout", layout, "err", err)
	}

	presented, err := g.r.TryPresent(g.surf)
	if err != nil {
		log.Error("demo: present failed", "err", err)
	}
	if presented {
		if err := g.surf.SwapBuffers(); err != nil {
			log.Error("demo: swap failed", "err", err)
		}
	}

	g.upload(screen)
	g.last = g.r.Stats()
	ebitenutil.DebugPrintAt(screen, g.status(), 4, screen.Bounds().Dy()-64)
}

// upload copies the surface's front image to the screen.
func (g *game) upload(screen *ebiten.Image) {
	g.surf.Front(func(img *image.RGBA) {
		w, h := img.Rect.Dx(), img.Rect.Dy()
		if w == 0 || h == 0 {
			return
		}
		if g.tex == nil || g.tex.Bounds().Dx() != w || g.tex.Bounds().Dy() != h {
			if g.tex != nil {
				g.tex.Deallocate()
			}
			g.tex = ebiten.NewImage(w, h)
		}
		g.pix = append(g.pix[:0], img.Pix...)
	})
	if g.tex == nil || len(g.pix) == 0 {
		return
	}
	g.tex.WritePixels(g.pix)
	screen.DrawImage(g.tex, nil)
}

func (g *game) status() string {
	s := g.last
	limiter := "off"
	if g.pacer.Enabled() {
		limiter = fmt.Sprintf("%d%%", g.pacer.SpeedLimit())
	}
	return fmt.Sprintf("limit %s  wait %v  fps %.1f\ndrawn %d  presented %d  skipped %d\nreclaimed %d  timeouts %d  failed %d\n+/- speed  L limiter  R reset",
		limiter, g.pacer.MaxWait(), ebiten.ActualFPS(),
		g.comp.Frames(), s.Presented, s.Mailbox.Skipped,
		s.Mailbox.Reclaimed, s.Mailbox.WaitTimeouts, s.Failed)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.window.width, g.window.height = outsideWidth, outsideHeight
	l := surface.LayoutFromWindow(&g.window)
	return max(int(l.Width), 1), max(int(l.Height), 1)
}
