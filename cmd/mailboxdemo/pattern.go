package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/mailbox"
	"github.com/gogpu/mailbox/backend/software"
	"github.com/gogpu/mailbox/backend/wgpu"
	"github.com/gogpu/mailbox/render"
	"github.com/gogpu/mailbox/surface"
)

// barWidth is the width of the scrolling bar in pixels.
const barWidth = 16

// patternCompositor draws a scrolling bar and the frame number into
// software framebuffers. The bar makes skipped frames visible as jumps.
type patternCompositor struct {
	dev   *software.Device
	frame atomic.Uint64
}

func newPatternCompositor(dev *software.Device) *patternCompositor {
	return &patternCompositor{dev: dev}
}

func (p *patternCompositor) Draw(dst mailbox.Framebuffer, layout surface.Layout) error {
	n := p.frame.Add(1)
	return p.dev.Draw(dst, func(img *image.RGBA) {
		drawPattern(img, n)
	})
}

// Frames returns the number of frames drawn.
func (p *patternCompositor) Frames() uint64 { return p.frame.Load() }

func drawPattern(img *image.RGBA, n uint64) {
	b := img.Bounds()
	draw.Draw(img, b, image.NewUniform(color.RGBA{R: 24, G: 24, B: 32, A: 255}), image.Point{}, draw.Src)
	if b.Dx() <= 0 {
		return
	}

	x := b.Min.X + int(n*4%uint64(b.Dx()))
	bar := image.Rect(x, b.Min.Y, x+barWidth, b.Max.Y).Intersect(b)
	draw.Draw(img, bar, image.NewUniform(hue(n)), image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(b.Min.X+4, b.Min.Y+basicfont.Face7x13.Ascent+4),
	}
	d.DrawString(fmt.Sprintf("frame %d", n))
}

// hue cycles through the color wheel, one full turn every 360 frames.
func hue(n uint64) color.RGBA {
	h := float64(n%360) / 60
	x := 1 - math.Abs(math.Mod(h, 2)-1)
	var r, g, b float64
	switch int(h) {
	case 0:
		r, g = 1, x
	case 1:
		r, g = x, 1
	case 2:
		g, b = 1, x
	case 3:
		g, b = x, 1
	case 4:
		r, b = x, 1
	default:
		r, b = 1, x
	}
	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 255}
}

// clearCompositor fills wgpu framebuffers with a color that cycles with
// the frame number.
type clearCompositor struct {
	dev   *wgpu.Device
	frame atomic.Uint64
}

func newClearCompositor(dev *wgpu.Device) *clearCompositor {
	return &clearCompositor{dev: dev}
}

func (c *clearCompositor) Draw(dst mailbox.Framebuffer, layout surface.Layout) error {
	n := c.frame.Add(1)
	h := hue(n)
	return c.dev.Clear(dst, gputypes.Color{
		R: float64(h.R) / 255,
		G: float64(h.G) / 255,
		B: float64(h.B) / 255,
		A: 1,
	})
}

// Frames returns the number of frames drawn.
func (c *clearCompositor) Frames() uint64 { return c.frame.Load() }

// frameCounter is implemented by the demo compositors.
type frameCounter interface {
	render.Compositor
	Frames() uint64
}

// compositorFor picks the compositor matching the device's backend.
func compositorFor(dev mailbox.Device) (frameCounter, error) {
	switch d := dev.(type) {
	case *software.Device:
		return newPatternCompositor(d), nil
	case *wgpu.Device:
		return newClearCompositor(d), nil
	}
	return nil, fmt.Errorf("no compositor for device %T", dev)
}
