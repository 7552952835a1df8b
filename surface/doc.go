// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface describes the display targets a presenter blits into.
//
// A Surface is the window side of the pipeline: a framebuffer the
// presenter can blit a slot into, and a swap that puts it on screen.
// Backends provide concrete surfaces (software.Surface for an in-memory
// window); this package holds the interfaces and the geometry shared by
// all of them.
//
// # Layout
//
// Layout is the size, in physical pixels, that the producer renders at.
// LayoutFromWindow derives it from a gpucontext.WindowProvider, applying
// the HiDPI scale factor:
//
//	layout := surface.LayoutFromWindow(window)
//
// Fit places a frame inside a surface, either stretched over the whole
// area or letterboxed to keep its aspect ratio.
package surface
