// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"github.com/gogpu/mailbox"
	"github.com/gogpu/mailbox/surface"
)

// Compositor draws one frame into a render target of the given layout.
// It runs on the producer goroutine.
type Compositor interface {
	Draw(dst mailbox.Framebuffer, layout surface.Layout) error
}

// CompositorFunc adapts a function to Compositor.
type CompositorFunc func(dst mailbox.Framebuffer, layout surface.Layout) error

// Draw calls f(dst, layout).
func (f CompositorFunc) Draw(dst mailbox.Framebuffer, layout surface.Layout) error {
	return f(dst, layout)
}
