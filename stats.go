package mailbox

// Stats is a point-in-time snapshot of mailbox activity.
type Stats struct {
	// Released counts slots published by the producer.
	Released uint64
	// Presented counts slots handed to the presenter.
	Presented uint64
	// Skipped counts published slots that were recycled without being
	// presented.
	Skipped uint64
	// Reclaimed counts queued slots taken back by the producer after a
	// wait timeout.
	Reclaimed uint64
	// WaitTimeouts counts GetRenderFrame waits that expired.
	WaitTimeouts uint64
	// Canceled counts slots returned through CancelRenderFrame.
	Canceled uint64

	Free     int
	Queued   int
	Leased   int
	Retained int
}

// Stats returns current counters and slot occupancy.
func (m *Mailbox) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Stats{
		Released:     m.stats.released,
		Presented:    m.stats.presented,
		Skipped:      m.stats.skipped,
		Reclaimed:    m.stats.reclaimed,
		WaitTimeouts: m.stats.waitTimeouts,
		Canceled:     m.stats.canceled,
		Free:         m.free.len(),
		Queued:       m.present.len(),
	}
	if m.previous != nil {
		st.Retained = 1
	}
	if !m.closed {
		st.Leased = m.pool.Len() - st.Free - st.Queued - st.Retained
	}
	return st
}
