package mailbox

import (
	"fmt"
	"sync"
	"time"
)

// Mailbox passes rendered slots from one producer to one presenter.
//
// All methods are safe for concurrent use. The mutex protects queue
// membership and slot states only; no GPU call is made while it is held.
type Mailbox struct {
	mu   sync.Mutex
	cond *sync.Cond // signaled when free grows or the mailbox closes

	pool     *Pool
	free     slotQueue
	present  slotQueue
	previous *Slot

	maxWait   time.Duration
	closed    bool
	destroyed bool
	ready     chan struct{}

	stats counters
}

type counters struct {
	released     uint64
	presented    uint64
	skipped      uint64
	reclaimed    uint64
	waitTimeouts uint64
	canceled     uint64
}

// New creates a mailbox with a pool of slots allocated from dev.
//
// Slots start without GPU resources unless WithInitialSize is given.
func New(dev Device, opts ...Option) (*Mailbox, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.poolSize < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPoolSize, o.poolSize)
	}

	m := &Mailbox{
		free:    newSlotQueue(o.poolSize),
		present: newSlotQueue(o.poolSize),
		maxWait: o.maxWait,
		ready:   make(chan struct{}, 1),
	}
	m.cond = sync.NewCond(&m.mu)
	m.pool = newPool(dev, o.poolSize, o.format, m)

	if o.width != 0 || o.height != 0 {
		if err := m.pool.allocate(o.width, o.height); err != nil {
			m.pool.destroy()
			return nil, err
		}
	}
	for i := range o.poolSize {
		m.free.pushBack(i)
	}

	Logger().Info("mailbox: pool created",
		"slots", o.poolSize, "max_wait", o.maxWait, "format", o.format)
	return m, nil
}

// Pool returns the slot pool, for resizing slots and rebuilding present
// targets.
func (m *Mailbox) Pool() *Pool { return m.pool }

// SetMaxWait changes how long GetRenderFrame waits before reclaiming a
// queued slot. It takes effect on the next wait.
func (m *Mailbox) SetMaxWait(d time.Duration) {
	if d < 0 {
		d = 0
	}
	m.mu.Lock()
	m.maxWait = d
	m.mu.Unlock()
}

// MaxWait returns the current reclaim timeout.
func (m *Mailbox) MaxWait() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxWait
}

// Ready receives a value after a slot is released for presentation. It is
// a hint for presenters that are not paced by an external clock; the slot
// may already have been skipped by the time it is read.
func (m *Mailbox) Ready() <-chan struct{} { return m.ready }

// GetRenderFrame leases a slot to the producer.
//
// It takes the oldest free slot. If none is free it waits up to the max
// wait for the presenter to recycle one, then reclaims the oldest queued
// slot instead; when a second slot is queued behind it, that one goes back
// to the free queue so the queue keeps draining. If nothing is queued
// either, it keeps waiting. It returns ErrClosed once the mailbox is
// closed.
func (m *Mailbox) GetRenderFrame() (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		if m.closed {
			return nil, ErrClosed
		}
		if i, ok := m.free.popFront(); ok {
			return m.lease(i), nil
		}
		if m.waitFree(m.maxWait) {
			continue
		}
		if m.closed {
			return nil, ErrClosed
		}

		m.stats.waitTimeouts++
		if m.present.len() == 0 {
			// Every slot is leased or retained. Only a release, a
			// recycle or Close can change that, and the wait budget is
			// already spent, so the first queued slot is reclaimed.
			Logger().Debug("mailbox: no slot to reclaim, waiting")
			for m.free.len() == 0 && m.present.len() == 0 && !m.closed {
				m.cond.Wait()
			}
			if m.closed {
				return nil, ErrClosed
			}
			if i, ok := m.free.popFront(); ok {
				return m.lease(i), nil
			}
		}
		i, _ := m.present.popFront()
		if next, ok := m.present.popFront(); ok {
			m.recycle(next)
			m.stats.skipped++
		}
		m.stats.reclaimed++
		Logger().Debug("mailbox: reclaimed queued slot", "slot", i)
		return m.lease(i), nil
	}
}

// ReleaseRenderFrame publishes a leased slot for presentation.
func (m *Mailbox) ReleaseRenderFrame(s *Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if err := m.checkLeased(s); err != nil {
		return err
	}
	s.state = StateQueued
	m.present.pushBack(s.index)
	m.stats.released++
	m.cond.Broadcast()

	select {
	case m.ready <- struct{}{}:
	default:
	}
	return nil
}

// CancelRenderFrame returns a leased slot to the free queue without
// publishing it, for a producer that could not finish the frame.
func (m *Mailbox) CancelRenderFrame(s *Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if err := m.checkLeased(s); err != nil {
		return err
	}
	m.recycle(s.index)
	m.stats.canceled++
	return nil
}

// TryGetPresentFrame hands the newest queued slot to the presenter
// without blocking. The previously retained slot goes back to the free
// queue, as do any queued slots older than the one returned. It reports
// false when nothing is queued, in which case the presenter keeps showing
// its retained slot.
func (m *Mailbox) TryGetPresentFrame() (*Slot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.present.len() == 0 {
		return nil, false
	}
	if m.previous != nil {
		m.recycle(m.previous.index)
		m.previous = nil
	}

	i, _ := m.present.popBack()
	for {
		older, ok := m.present.popFront()
		if !ok {
			break
		}
		m.recycle(older)
		m.stats.skipped++
	}

	s := m.pool.slots[i]
	s.state = StateRetained
	m.previous = s
	m.stats.presented++
	return s, true
}

// ResetPresent drops every queued slot back to the free queue. The
// retained slot is kept. Used when queued frames must not be shown, for
// example after a reset or a layout change.
func (m *Mailbox) ResetPresent() {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for {
		i, ok := m.present.popFront()
		if !ok {
			break
		}
		m.recycle(i)
		dropped++
	}
	m.stats.skipped += uint64(dropped)
	if dropped > 0 {
		Logger().Debug("mailbox: present queue reset", "dropped", dropped)
	}
}

// Shutdown empties both queues and wakes every waiting producer without
// releasing GPU resources. Blocked and later GetRenderFrame calls return
// ErrClosed. A slot still leased or retained stays valid until Close, so
// callers can let in-flight work finish between the two calls.
func (m *Mailbox) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.free.clear()
	m.present.clear()
	m.previous = nil
	for _, s := range m.pool.slots {
		s.state = StateFree
	}
	m.cond.Broadcast()
}

// Close shuts the mailbox down and releases all GPU resources. The caller
// must make sure no goroutine is still using a slot it obtained. Close is
// idempotent.
func (m *Mailbox) Close() error {
	m.Shutdown()

	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return nil
	}
	m.destroyed = true
	m.mu.Unlock()

	m.pool.destroy()
	Logger().Info("mailbox: closed")
	return nil
}

// lease marks slot i as held by the producer. Called with m.mu held.
func (m *Mailbox) lease(i int) *Slot {
	s := m.pool.slots[i]
	s.state = StateLeased
	return s
}

// recycle moves slot i to the back of the free queue and wakes a waiting
// producer. Called with m.mu held.
func (m *Mailbox) recycle(i int) {
	m.pool.slots[i].state = StateFree
	m.free.pushBack(i)
	m.cond.Broadcast()
}

func (m *Mailbox) checkLeased(s *Slot) error {
	if s == nil || s.owner != m || s.state != StateLeased {
		return ErrForeignSlot
	}
	return nil
}

// waitFree blocks until the free queue is non-empty, the mailbox closes or
// d elapses, and reports whether a free slot is available. A zero d
// returns immediately. Called with m.mu held.
//
// sync.Cond has no timed wait, so a timer broadcasts at the deadline. The
// timer takes the lock before broadcasting, which means it cannot fire
// between the deadline check and cond.Wait.
func (m *Mailbox) waitFree(d time.Duration) bool {
	if d <= 0 {
		return m.free.len() > 0
	}
	deadline := time.Now().Add(d)
	timer := time.AfterFunc(d, func() {
		m.mu.Lock()
		m.cond.Broadcast()
		m.mu.Unlock()
	})
	defer timer.Stop()

	for m.free.len() == 0 && !m.closed {
		if !time.Now().Before(deadline) {
			return false
		}
		m.cond.Wait()
	}
	return m.free.len() > 0
}
