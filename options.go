package mailbox

import (
	"time"

	"github.com/gogpu/gputypes"
)

// DefaultPoolSize is the number of slots a mailbox owns unless
// WithPoolSize says otherwise.
const DefaultPoolSize = 6

// DefaultFormat is the color format of slot buffers.
const DefaultFormat = gputypes.TextureFormatRGBA8Unorm

// Option configures a Mailbox during creation.
//
// Example:
//
//	mb, err := mailbox.New(dev,
//	    mailbox.WithPoolSize(3),
//	    mailbox.WithMaxWait(16*time.Millisecond),
//	)
type Option func(*options)

type options struct {
	poolSize      int
	maxWait       time.Duration
	format        gputypes.TextureFormat
	width, height uint32
}

func defaultOptions() options {
	return options{
		poolSize: DefaultPoolSize,
		format:   DefaultFormat,
	}
}

// WithPoolSize sets the number of slots. At least two are required.
func WithPoolSize(n int) Option {
	return func(o *options) {
		o.poolSize = n
	}
}

// WithMaxWait sets how long GetRenderFrame waits for a free slot before it
// reclaims a queued one. Zero means reclaim immediately. See pacer.MaxWait
// for the value derived from an emulation speed limit.
func WithMaxWait(d time.Duration) Option {
	return func(o *options) {
		if d < 0 {
			d = 0
		}
		o.maxWait = d
	}
}

// WithFormat sets the color format used for slot buffers.
func WithFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithInitialSize allocates every slot at the given size during New.
// Without it slots start empty and are sized by the first frame rendered
// into them. Allocation failures here are returned from New.
func WithInitialSize(width, height uint32) Option {
	return func(o *options) {
		o.width = width
		o.height = height
	}
}
