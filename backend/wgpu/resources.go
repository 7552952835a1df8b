package wgpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/mailbox"
)

// ColorBuffer is a 2D HAL texture.
type ColorBuffer struct {
	tex           hal.Texture
	width, height uint32
	format        gputypes.TextureFormat
	owned         bool
}

// Width returns the texture width.
func (c *ColorBuffer) Width() uint32 { return c.width }

// Height returns the texture height.
func (c *ColorBuffer) Height() uint32 { return c.height }

// Texture returns the HAL texture.
func (c *ColorBuffer) Texture() hal.Texture { return c.tex }

// Framebuffer is a view over a ColorBuffer.
type Framebuffer struct {
	color *ColorBuffer
	view  hal.TextureView
}

// ColorBuffer returns the attachment.
func (f *Framebuffer) ColorBuffer() mailbox.ColorBuffer { return f.color }

// View returns the HAL texture view, for use as a render pass attachment.
func (f *Framebuffer) View() hal.TextureView { return f.view }

// Fence is a queue submission index.
type Fence struct {
	index uint64
}

// Index returns the submission index the fence waits for.
func (f *Fence) Index() uint64 { return f.index }

// pending is a submitted command buffer waiting to be freed.
type pending struct {
	index uint64
	enc   hal.CommandEncoder
	cmd   hal.CommandBuffer
}
