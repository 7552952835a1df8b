// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/mailbox"
)

type fixedSurface struct{ w, h uint32 }

func (s *fixedSurface) Framebuffer() mailbox.Framebuffer { return nil }
func (s *fixedSurface) Size() (uint32, uint32)           { return s.w, s.h }
func (s *fixedSurface) SwapBuffers() error               { return nil }

type resizableSurface struct {
	fixedSurface
	calls int
}

func (s *resizableSurface) Resize(w, h uint32) error {
	s.calls++
	s.w, s.h = w, h
	return nil
}

func TestLayoutFromWindow(t *testing.T) {
	tests := []struct {
		name string
		wp   gpucontext.NullWindowProvider
		want Layout
	}{
		{"standard", gpucontext.NullWindowProvider{W: 800, H: 600}, Layout{800, 600}},
		{"hidpi", gpucontext.NullWindowProvider{W: 400, H: 240, SF: 2}, Layout{800, 480}},
		{"fractional", gpucontext.NullWindowProvider{W: 101, H: 51, SF: 1.5}, Layout{152, 77}},
		{"minimized", gpucontext.NullWindowProvider{W: -1, H: 0}, Layout{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LayoutFromWindow(tt.wp); got != tt.want {
				t.Errorf("LayoutFromWindow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name     string
		src, dst Layout
		mode     FitMode
		want     image.Rectangle
	}{
		{"stretch", Layout{400, 240}, Layout{800, 600}, FitStretch, image.Rect(0, 0, 800, 600)},
		{"pillarbox", Layout{100, 100}, Layout{800, 600}, FitAspect, image.Rect(100, 0, 700, 600)},
		{"letterbox", Layout{400, 100}, Layout{800, 600}, FitAspect, image.Rect(0, 200, 800, 400)},
		{"exact", Layout{400, 240}, Layout{800, 480}, FitAspect, image.Rect(0, 0, 800, 480)},
		{"empty src", Layout{}, Layout{8, 6}, FitAspect, image.Rect(0, 0, 8, 6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fit(tt.src, tt.dst, tt.mode); got != tt.want {
				t.Errorf("Fit(%v, %v) = %v, want %v", tt.src, tt.dst, got, tt.want)
			}
		})
	}
}

func TestSync(t *testing.T) {
	r := &resizableSurface{fixedSurface: fixedSurface{w: 10, h: 10}}

	changed, err := Sync(r, Layout{10, 10})
	if err != nil || changed {
		t.Errorf("Sync(same) = %v, %v; want false, nil", changed, err)
	}
	changed, err = Sync(r, Layout{20, 12})
	if err != nil || !changed {
		t.Errorf("Sync(new) = %v, %v; want true, nil", changed, err)
	}
	if w, h := r.Size(); w != 20 || h != 12 || r.calls != 1 {
		t.Errorf("after Sync size = %dx%d calls = %d", w, h, r.calls)
	}
	if changed, _ := Sync(r, Layout{}); changed {
		t.Error("Sync(empty) resized the surface")
	}

	if _, err := Sync(&fixedSurface{w: 1, h: 1}, Layout{2, 2}); !errors.Is(err, ErrNotResizable) {
		t.Errorf("Sync(fixed) error = %v, want ErrNotResizable", err)
	}
}
