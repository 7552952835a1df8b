package mailbox

// SlotState is where a slot currently lives.
type SlotState uint8

const (
	StateFree SlotState = iota
	StateLeased
	StateQueued
	StateRetained
)

func (s SlotState) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateLeased:
		return "leased"
	case StateQueued:
		return "queued"
	case StateRetained:
		return "retained"
	default:
		return "unknown"
	}
}

// Slot is one reusable frame buffer of the pool.
//
// Its GPU resources belong to whichever side holds the slot: the producer
// between GetRenderFrame and ReleaseRenderFrame, the presenter while it is
// retained. The render fence is written by the producer and read by the
// presenter; the present fence is written by the presenter and drained by
// the producer on the next lease. The mailbox hand-off orders those
// accesses, so the fields need no lock of their own.
type Slot struct {
	index int
	owner *Mailbox

	// state is guarded by owner.mu.
	state SlotState

	width, height uint32
	stale         bool

	color   ColorBuffer
	render  Framebuffer
	present Framebuffer

	renderFence  Fence
	presentFence Fence
}

// Index returns the slot's position in the pool.
func (s *Slot) Index() int { return s.index }

// Width returns the width of the slot's color buffer, or 0 if none.
func (s *Slot) Width() uint32 { return s.width }

// Height returns the height of the slot's color buffer, or 0 if none.
func (s *Slot) Height() uint32 { return s.height }

// Stale reports whether the color buffer was replaced since the present
// target was last built.
func (s *Slot) Stale() bool { return s.stale }

// ColorBuffer returns the slot's color storage.
func (s *Slot) ColorBuffer() ColorBuffer { return s.color }

// RenderTarget returns the producer-side framebuffer.
func (s *Slot) RenderTarget() Framebuffer { return s.render }

// PresentTarget returns the presenter-side framebuffer.
func (s *Slot) PresentTarget() Framebuffer { return s.present }

// RenderFence returns the fence placed after the producer's draw, if any.
func (s *Slot) RenderFence() Fence { return s.renderFence }

// PresentFence returns the fence placed after the presenter's blit, if any.
func (s *Slot) PresentFence() Fence { return s.presentFence }

// SwapRenderFence installs f and returns the previous render fence.
// The caller owns the returned fence and must destroy it.
func (s *Slot) SwapRenderFence(f Fence) Fence {
	old := s.renderFence
	s.renderFence = f
	return old
}

// SwapPresentFence installs f and returns the previous present fence.
// The caller owns the returned fence and must destroy it.
func (s *Slot) SwapPresentFence(f Fence) Fence {
	old := s.presentFence
	s.presentFence = f
	return old
}
