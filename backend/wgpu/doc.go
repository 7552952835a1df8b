// Package wgpu implements mailbox.Device on a gogpu/wgpu HAL device.
//
// Color buffers are HAL textures and framebuffers are views over them.
// Fences are queue submission indices: a fence signals once
// Queue.PollCompleted reaches its index. All work goes through one queue,
// which executes in submission order, so a GPU-side fence wait needs no
// command of its own.
//
// Blit records a texture-to-texture copy. HAL copies cannot resample, so
// when source and destination sizes differ the overlapping region is
// copied at 1:1 and the mismatch is logged.
//
// The backend registers itself as backend.NameWGPU. Opening it requires a
// HAL backend to be linked in, for example:
//
//	import (
//		_ "github.com/gogpu/mailbox/backend/wgpu"
//		_ "github.com/gogpu/wgpu/hal/vulkan"
//	)
package wgpu
