// Package actor implements a generic priority-mailbox single-writer event
// loop: one goroutine processes events strictly in priority order (ties
// broken FIFO), so admin/liveness events always preempt a backlog of
// router dispatches.
//
// Grounded on novatif-surgemq's publisher goroutine (a single list
// drained by one writer under a sync.Cond, session.go's publishWorker),
// generalized from a plain FIFO list to a priority queue. No available
// library implements a generic priority mailbox, so this leans on the
// standard library's container/heap (justified: a broker-specific fan-in
// construct, not a concern any dependency targets).
package actor

import (
	"container/heap"
	"sync"
)

// Envelope wraps a payload with the priority it was submitted at and a
// monotonic sequence number used to keep same-priority events in arrival
// order: a given sender's events stay in sender order, modulo the
// priority ladder.
type Envelope struct {
	Priority int
	Seq      uint64
	Payload  interface{}
}

// pqueue is a container/heap.Interface over pending envelopes: highest
// Priority first, lowest Seq first among ties.
type pqueue []Envelope

func (q pqueue) Len() int { return len(q) }
func (q pqueue) Less(i, j int) bool {
	if q[i].Priority != q[j].Priority {
		return q[i].Priority > q[j].Priority
	}
	return q[i].Seq < q[j].Seq
}
func (q pqueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *pqueue) Push(x interface{}) {
	*q = append(*q, x.(Envelope))
}
func (q *pqueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Mailbox is a single-writer priority queue: many goroutines may Send
// concurrently, exactly one goroutine (the Session actor) calls Run.
type Mailbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	q      pqueue
	seq    uint64
	closed bool
}

// NewMailbox constructs an empty Mailbox.
func NewMailbox() *Mailbox {
	m := &Mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Send enqueues payload at the given priority. Safe to call from any
// goroutine, including after Close (the send is silently dropped).
func (m *Mailbox) Send(priority int, payload interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	m.seq++
	heap.Push(&m.q, Envelope{Priority: priority, Seq: m.seq, Payload: payload})
	m.cond.Signal()
}

// Close stops the mailbox: pending Run call returns once it drains any
// already-queued envelopes, and subsequent Send calls are no-ops.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.cond.Broadcast()
}

// Run drains the mailbox, invoking handle for each envelope's payload in
// priority order, until Close is called and the queue is empty. Intended
// to be the sole goroutine reading this Mailbox (the session actor's event
// loop); handle must not call Send synchronously in a way that could
// deadlock on m.mu (it doesn't hold m.mu while calling handle).
func (m *Mailbox) Run(handle func(interface{})) {
	for {
		m.mu.Lock()
		for len(m.q) == 0 && !m.closed {
			m.cond.Wait()
		}
		if len(m.q) == 0 && m.closed {
			m.mu.Unlock()
			return
		}
		env := heap.Pop(&m.q).(Envelope)
		m.mu.Unlock()

		handle(env.Payload)
	}
}

// Len reports the number of envelopes currently queued (diagnostic only).
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.q)
}
