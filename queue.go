package mailbox

// slotQueue is a fixed-capacity ring of slot indices. Capacity equals the
// pool size, so a push can only overflow if a slot is tracked twice.
type slotQueue struct {
	buf  []int
	head int
	n    int
}

func newSlotQueue(capacity int) slotQueue {
	return slotQueue{buf: make([]int, capacity)}
}

func (q *slotQueue) len() int { return q.n }

func (q *slotQueue) pushBack(i int) {
	if q.n == len(q.buf) {
		panic("mailbox: slot queue overflow")
	}
	q.buf[(q.head+q.n)%len(q.buf)] = i
	q.n++
}

func (q *slotQueue) popFront() (int, bool) {
	if q.n == 0 {
		return 0, false
	}
	i := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return i, true
}

func (q *slotQueue) popBack() (int, bool) {
	if q.n == 0 {
		return 0, false
	}
	q.n--
	return q.buf[(q.head+q.n)%len(q.buf)], true
}

func (q *slotQueue) clear() {
	q.head = 0
	q.n = 0
}

// at returns the k-th element from the front.
func (q *slotQueue) at(k int) int {
	return q.buf[(q.head+k)%len(q.buf)]
}
