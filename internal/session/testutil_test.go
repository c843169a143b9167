package session

import (
	"sync"

	"github.com/lovecc0923/emqttd/internal/message"
	"github.com/lovecc0923/emqttd/internal/router"
)

// fakeClient is a router.ClientHandle test double recording every call it
// receives, grounded on the "spy" style used across gonzalop-mq's client
// tests (its client_test.go / token.go exercise handlers via recorded
// calls rather than a live socket).
type fakeClient struct {
	mu          sync.Mutex
	delivered   []message.Message
	redelivered []uint16
	kicked      bool
	kickReason  string
	done        chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{done: make(chan struct{})}
}

func (f *fakeClient) Deliver(msg message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, msg)
	return nil
}

func (f *fakeClient) Redeliver(pktid uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redelivered = append(f.redelivered, pktid)
	return nil
}

func (f *fakeClient) Kickout(reason string, newHandle router.ClientHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kicked = true
	f.kickReason = reason
	return nil
}

func (f *fakeClient) Done() <-chan struct{} {
	return f.done
}

func (f *fakeClient) Delivered() []message.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]message.Message, len(f.delivered))
	copy(out, f.delivered)
	return out
}

func (f *fakeClient) Redelivered() []uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uint16, len(f.redelivered))
	copy(out, f.redelivered)
	return out
}

func (f *fakeClient) Kicked() (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.kicked, f.kickReason
}

// fakeRouter is a router.Router test double recording published messages.
type fakeRouter struct {
	mu        sync.Mutex
	published []message.Message
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{}
}

func (r *fakeRouter) Publish(msg message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, msg)
	return nil
}

func (r *fakeRouter) Subscribe(clientID string, topics map[string]message.QoS, sub router.Subscriber) (map[string]message.QoS, error) {
	granted := make(map[string]message.QoS, len(topics))
	for f, q := range topics {
		granted[f] = q
	}
	return granted, nil
}

func (r *fakeRouter) Unsubscribe(clientID string, filters []string) error {
	return nil
}

func (r *fakeRouter) Published() []message.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]message.Message, len(r.published))
	copy(out, r.published)
	return out
}

// fakeRetained is a router.Retained test double recording every filter it
// was asked to dispatch retained messages for.
type fakeRetained struct {
	mu         sync.Mutex
	dispatched []string
}

func newFakeRetained() *fakeRetained {
	return &fakeRetained{}
}

func (r *fakeRetained) DispatchRetained(filter string, sub router.Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatched = append(r.dispatched, filter)
	return nil
}

func (r *fakeRetained) Dispatched() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.dispatched))
	copy(out, r.dispatched)
	return out
}

// fakeManager is a router.Manager test double recording every
// RegisterSession/UnregisterSession call.
type fakeManager struct {
	mu           sync.Mutex
	registered   []string
	unregistered []string
}

func newFakeManager() *fakeManager {
	return &fakeManager{}
}

func (m *fakeManager) RegisterSession(clientID string, info interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered = append(m.registered, clientID)
}

func (m *fakeManager) UnregisterSession(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unregistered = append(m.unregistered, clientID)
}

func (m *fakeManager) Registered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.registered))
	copy(out, m.registered)
	return out
}
