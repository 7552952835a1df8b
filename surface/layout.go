// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gpucontext"
)

// Layout is a render size in physical pixels.
type Layout struct {
	Width  uint32
	Height uint32
}

// Rect returns the layout as a rectangle at the origin.
func (l Layout) Rect() image.Rectangle {
	return image.Rect(0, 0, int(l.Width), int(l.Height))
}

// Empty reports whether either dimension is zero.
func (l Layout) Empty() bool {
	return l.Width == 0 || l.Height == 0
}

func (l Layout) String() string {
	return fmt.Sprintf("%dx%d", l.Width, l.Height)
}

// LayoutFromWindow converts a window's logical size to physical pixels.
// Negative sizes, such as a minimized window on some platforms, give an
// empty layout.
func LayoutFromWindow(w gpucontext.WindowProvider) Layout {
	width, height := w.Size()
	scale := w.ScaleFactor()
	if scale <= 0 {
		scale = 1
	}
	return Layout{
		Width:  physical(width, scale),
		Height: physical(height, scale),
	}
}

func physical(logical int, scale float64) uint32 {
	if logical <= 0 {
		return 0
	}
	return uint32(math.Round(float64(logical) * scale))
}

// FitMode selects how a frame is placed inside a surface.
type FitMode uint8

const (
	// FitStretch fills the whole surface.
	FitStretch FitMode = iota
	// FitAspect scales uniformly and centers, leaving bars on two sides.
	FitAspect
)

// Fit returns the destination rectangle for a frame of size src on a
// surface of size dst.
func Fit(src, dst Layout, mode FitMode) image.Rectangle {
	if mode == FitStretch || src.Empty() || dst.Empty() {
		return dst.Rect()
	}
	scale := min(float64(dst.Width)/float64(src.Width), float64(dst.Height)/float64(src.Height))
	w := max(int(float64(src.Width)*scale), 1)
	h := max(int(float64(src.Height)*scale), 1)
	x := (int(dst.Width) - w) / 2
	y := (int(dst.Height) - h) / 2
	return image.Rect(x, y, x+w, y+h)
}
