// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"errors"
	"fmt"

	"github.com/gogpu/mailbox"
)

// ErrNotResizable is returned by Sync for a surface without Resize.
var ErrNotResizable = errors.New("surface: surface cannot be resized")

// Surface is a presentable display target.
type Surface interface {
	// Framebuffer returns the buffer the next frame is blitted into.
	Framebuffer() mailbox.Framebuffer

	// Size returns the surface size in physical pixels.
	Size() (width, height uint32)

	// SwapBuffers shows the framebuffer's contents.
	SwapBuffers() error
}

// Resizable is implemented by surfaces that can change size.
type Resizable interface {
	Surface
	Resize(width, height uint32) error
}

// Sync resizes s to match layout and reports whether the size changed.
func Sync(s Surface, layout Layout) (bool, error) {
	if layout.Empty() {
		return false, nil
	}
	w, h := s.Size()
	if w == layout.Width && h == layout.Height {
		return false, nil
	}
	r, ok := s.(Resizable)
	if !ok {
		return false, ErrNotResizable
	}
	if err := r.Resize(layout.Width, layout.Height); err != nil {
		return false, fmt.Errorf("surface: resize to %v: %w", layout, err)
	}
	mailbox.Logger().Debug("surface: resized", "from_w", w, "from_h", h, "layout", layout.String())
	return true, nil
}
