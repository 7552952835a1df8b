package mailbox

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the mailbox.
var (
	// ErrClosed is returned by GetRenderFrame once the mailbox has been
	// closed. Producers treat it as the signal to stop.
	ErrClosed = errors.New("mailbox: closed")

	// ErrNilDevice is returned by New when no Device is supplied.
	ErrNilDevice = errors.New("mailbox: nil device")

	// ErrInvalidPoolSize is returned by New for a pool smaller than two
	// slots: one retained by the presenter and one the producer can lease.
	ErrInvalidPoolSize = errors.New("mailbox: pool needs at least 2 slots")

	// ErrInvalidDimensions is returned when a slot is resized to a zero
	// width or height.
	ErrInvalidDimensions = errors.New("mailbox: invalid slot dimensions")

	// ErrForeignSlot is returned when a slot from another mailbox, or one
	// not currently leased, is handed back.
	ErrForeignSlot = errors.New("mailbox: slot not leased from this mailbox")

	// ErrNoColorBuffer is returned by RebuildPresent when the slot has no
	// color buffer to attach, usually after a failed resize.
	ErrNoColorBuffer = errors.New("mailbox: slot has no color buffer")
)

// ResourceError reports a failed GPU allocation for a slot.
type ResourceError struct {
	Op   string // "create color buffer", "create render target", ...
	Slot int
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("mailbox: %s (slot %d): %v", e.Op, e.Slot, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}
