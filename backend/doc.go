// Package backend selects the GPU device a mailbox renders with.
//
// # Backend Registration
//
// Backends register a Factory from init(). Import the backend packages you
// want available:
//
//	import (
//		_ "github.com/gogpu/mailbox/backend/software"
//		_ "github.com/gogpu/mailbox/backend/wgpu"
//	)
//
// # Backend Selection
//
// Use Default to open the best available backend, or Open to request one
// by name:
//
//	name, dev, err := backend.Default()
//
//	dev, err := backend.Open(backend.NameSoftware)
//
// Default tries wgpu first and falls back to software when no GPU adapter
// can be opened.
package backend
