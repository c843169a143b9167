// Package mqueue implements the bounded FIFO collaborator that holds
// pending messages while the inflight window is full or the client is
// offline, bounded with a configurable drop policy. The session assumes
// Enqueue never blocks.
//
// Grounded on novatif-surgemq's publisher.messages *list.List
// (session.go), generalized from an unbounded list to a bounded list
// with drop policy.
package mqueue

import (
	"container/list"
	"sync"

	"github.com/lovecc0923/emqttd/internal/message"
)

// DropPolicy chooses what happens when Enqueue is called on a full queue.
type DropPolicy byte

const (
	// DropNewest refuses the incoming message, keeping the queue as-is.
	DropNewest DropPolicy = iota
	// DropOldest evicts the queue's oldest entry to make room.
	DropOldest
)

// Queue is a bounded, drop-policy FIFO of pending messages.
type Queue struct {
	mu       sync.Mutex
	messages *list.List
	max      int // 0 = unbounded
	policy   DropPolicy
	dropped  uint64
}

// New constructs a Queue. max == 0 means unbounded (no drops ever occur).
func New(max int, policy DropPolicy) *Queue {
	return &Queue{
		messages: list.New(),
		max:      max,
		policy:   policy,
	}
}

// Enqueue appends msg to the tail of the queue, applying the drop policy
// if the queue is at capacity. Never blocks.
func (q *Queue) Enqueue(msg message.Message) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.max > 0 && q.messages.Len() >= q.max {
		switch q.policy {
		case DropOldest:
			q.messages.Remove(q.messages.Front())
			q.dropped++
		case DropNewest:
			q.dropped++
			return
		}
	}

	q.messages.PushBack(msg)
}

// Dequeue pops the head of the queue (FIFO), reporting ok=false if empty.
func (q *Queue) Dequeue() (message.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	front := q.messages.Front()
	if front == nil {
		return message.Message{}, false
	}
	q.messages.Remove(front)
	return front.Value.(message.Message), true
}

// Len reports the number of messages currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.messages.Len()
}

// Dropped reports the cumulative count of dropped enqueue attempts, used
// in stats snapshots.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
