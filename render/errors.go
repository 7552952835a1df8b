// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import "errors"

var (
	// ErrNilCompositor is returned by New without a Compositor.
	ErrNilCompositor = errors.New("render: nil compositor")

	// ErrNoSurface is returned by New in direct mode without WithSurface.
	ErrNoSurface = errors.New("render: direct mode requires a surface")
)
