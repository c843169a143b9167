// Package router defines the external collaborators the session core
// depends on only by contract (Router, Retained-message store, Session
// Manager, Client Connection), plus a small in-memory Router reference
// implementation used by tests and the cmd/sessiond demo.
//
// Grounded on novatif-surgemq's topics.Manager / types.Subscriber
// callback shape (session.go's s.config.topicsMgr.Subscribe/Publish/
// Unsubscribe and s.subscriber.Publish).
package router

import (
	"sync"

	"github.com/lovecc0923/emqttd/internal/message"
)

// ClientHandle is the outbound mailbox a Session delivers to.
// Implementations live in the connection handler, out of scope here.
type ClientHandle interface {
	// Deliver sends a fresh or redelivered PUBLISH to the client.
	Deliver(msg message.Message) error
	// Redeliver replays a PUBREL for a QoS2 packet id during resume.
	Redeliver(pktid uint16) error
	// Kickout notifies a superseded connection that a new client took
	// over its identity.
	Kickout(reason string, newHandle ClientHandle) error
	// Done is closed when the underlying connection goes away; the
	// Session watches it to detect the client going down.
	Done() <-chan struct{}
}

// Subscriber is what a Session registers with the Router so dispatched
// messages land back on the session's Dispatch path.
type Subscriber interface {
	Dispatch(msg message.Message)
}

// Router is the topic-tree matching and global dispatch fabric, specified
// here only by contract.
type Router interface {
	Publish(msg message.Message) error
	Subscribe(clientID string, topics map[string]message.QoS, sub Subscriber) (granted map[string]message.QoS, err error)
	Unsubscribe(clientID string, filters []string) error
}

// Retained is the retained-message store contract.
type Retained interface {
	DispatchRetained(filter string, sub Subscriber) error
}

// Manager is the Session Manager / registry contract: tracks live
// sessions by client id and receives periodic stats snapshots.
type Manager interface {
	RegisterSession(clientID string, info interface{})
	UnregisterSession(clientID string)
}

// InMemory is a minimal, concurrency-safe Router reference implementation
// for tests and the cmd/sessiond demo; it does no real topic-filter
// wildcard matching (exact-match only), which is sufficient to exercise
// the session core's dispatch path without pulling in a wire codec.
type InMemory struct {
	mu   sync.RWMutex
	subs map[string]map[string]Subscriber // topic filter -> clientID -> Subscriber
}

// NewInMemory constructs an empty in-memory Router.
func NewInMemory() *InMemory {
	return &InMemory{subs: make(map[string]map[string]Subscriber)}
}

// Publish delivers msg to every Subscriber registered under msg.Topic
// (exact match only).
func (r *InMemory) Publish(msg message.Message) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sub := range r.subs[msg.Topic] {
		sub.Dispatch(msg)
	}
	return nil
}

// Subscribe grants every requested QoS as-is and registers sub under each
// filter.
func (r *InMemory) Subscribe(clientID string, topics map[string]message.QoS, sub Subscriber) (map[string]message.QoS, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	granted := make(map[string]message.QoS, len(topics))
	for filter, qos := range topics {
		if r.subs[filter] == nil {
			r.subs[filter] = make(map[string]Subscriber)
		}
		r.subs[filter][clientID] = sub
		granted[filter] = qos
	}
	return granted, nil
}

// Unsubscribe removes clientID from each named filter, ignoring unknown
// filters.
func (r *InMemory) Unsubscribe(clientID string, filters []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, filter := range filters {
		if byClient, ok := r.subs[filter]; ok {
			delete(byClient, clientID)
			if len(byClient) == 0 {
				delete(r.subs, filter)
			}
		}
	}
	return nil
}
