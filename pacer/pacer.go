// Package pacer derives frame timing from an emulation speed limit.
//
// The speed limit is a percentage of native speed (100 = real time). The
// same setting drives two things: how often the producer renders, and how
// long the producer may wait for the presenter before it reclaims a queued
// frame.
package pacer

import (
	"slices"
	"sync"
	"time"

	"github.com/gogpu/mailbox"
)

// DefaultSpeedLimit is native speed.
const DefaultSpeedLimit = 100

// MaxWait returns the producer wait budget for a speed limit in percent.
//
// With the limiter enabled the budget is (200 - limit) / 2 milliseconds,
// floored at 1ms: 50ms at native speed, 1ms at 200% and above. With the
// limiter disabled the producer never waits and reclaims immediately.
func MaxWait(limit int, enabled bool) time.Duration {
	if !enabled {
		return 0
	}
	ms := max(200-max(limit, 0), 2) >> 1
	return time.Duration(ms) * time.Millisecond
}

// Interval returns the time between frames for a source that runs at one
// frame per base at native speed. It returns 0 when the limiter is
// disabled or the limit is not positive, meaning "as fast as possible".
func Interval(base time.Duration, limit int, enabled bool) time.Duration {
	if !enabled || limit <= 0 {
		return 0
	}
	return base * DefaultSpeedLimit / time.Duration(limit)
}

// Pacer holds the current speed limit and notifies subscribers when it
// changes.
type Pacer struct {
	mu      sync.Mutex
	limit   int
	enabled bool
	subs    []func(time.Duration)
}

// New returns a Pacer with the given limit in percent.
func New(limit int, enabled bool) *Pacer {
	return &Pacer{limit: limit, enabled: enabled}
}

// SpeedLimit returns the current limit in percent.
func (p *Pacer) SpeedLimit() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.limit
}

// Enabled reports whether the limiter is on.
func (p *Pacer) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// MaxWait returns the wait budget for the current setting.
func (p *Pacer) MaxWait() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return MaxWait(p.limit, p.enabled)
}

// Interval returns the frame interval for the current setting.
func (p *Pacer) Interval(base time.Duration) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Interval(base, p.limit, p.enabled)
}

// SetSpeedLimit changes the limit and notifies subscribers.
func (p *Pacer) SetSpeedLimit(limit int) {
	p.update(func() { p.limit = limit })
}

// SetEnabled turns the limiter on or off and notifies subscribers.
func (p *Pacer) SetEnabled(enabled bool) {
	p.update(func() { p.enabled = enabled })
}

// Subscribe registers fn to receive the wait budget whenever it changes.
// fn is called once immediately with the current value. Callbacks run on
// the goroutine that changed the setting and must not call back into the
// Pacer.
func (p *Pacer) Subscribe(fn func(time.Duration)) {
	p.mu.Lock()
	p.subs = append(p.subs, fn)
	d := MaxWait(p.limit, p.enabled)
	p.mu.Unlock()
	fn(d)
}

// Attach keeps the mailbox's max wait in sync with the pacer.
func (p *Pacer) Attach(m *mailbox.Mailbox) {
	p.Subscribe(m.SetMaxWait)
}

func (p *Pacer) update(change func()) {
	p.mu.Lock()
	before := MaxWait(p.limit, p.enabled)
	change()
	after := MaxWait(p.limit, p.enabled)
	subs := slices.Clone(p.subs)
	limit, enabled := p.limit, p.enabled
	p.mu.Unlock()

	mailbox.Logger().Debug("pacer: speed limit changed",
		"limit", limit, "enabled", enabled, "max_wait", after)
	if before == after {
		return
	}
	for _, fn := range subs {
		fn(after)
	}
}
