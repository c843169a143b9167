// Package hook implements an observer/interceptor bus over four session
// lifecycle events: client.subscribe, client.subscribe.after,
// client.unsubscribe, and message.acked. Absence of any hook is identity
// (foldl hooks) or no-op (foreach hooks).
//
// Grounded on other_examples' axmq-ax hook.go: a Provides(event)-gated
// registry of named hooks, narrowed here to the four events the session
// core needs.
package hook

import "github.com/lovecc0923/emqttd/internal/message"

// Event enumerates the hook points the session core fires.
type Event byte

const (
	// ClientSubscribe is a foldl hook: may filter/mutate the requested
	// (filter, qos) pairs before they reach the Router.
	ClientSubscribe Event = iota
	// ClientSubscribeAfter is a foreach hook fired once subscriptions are
	// merged into session state.
	ClientSubscribeAfter
	// ClientUnsubscribe is a foldl hook over the unsubscribe filter list.
	ClientUnsubscribe
	// MessageAcked is a foreach hook fired when a QoS1/2 delivery reaches
	// terminal acknowledgement (PUBACK, or PUBREC for QoS2).
	MessageAcked
)

func (e Event) String() string {
	switch e {
	case ClientSubscribe:
		return "client.subscribe"
	case ClientSubscribeAfter:
		return "client.subscribe.after"
	case ClientUnsubscribe:
		return "client.unsubscribe"
	case MessageAcked:
		return "message.acked"
	default:
		return "unknown"
	}
}

// Topic is a (filter, requested QoS) pair as passed through subscribe hooks.
type Topic struct {
	Filter string
	QoS    message.QoS
}

// Hook is implemented by bus consumers. Provides gates dispatch so the
// bus never calls a method a hook does not care about.
type Hook interface {
	ID() string
	Provides(event Event) bool

	// OnClientSubscribe may filter/mutate the requested topics. Identity
	// if Provides(ClientSubscribe) is false.
	OnClientSubscribe(clientID string, topics []Topic) []Topic

	// OnClientSubscribeAfter is a pure notification after merge.
	OnClientSubscribeAfter(clientID string, topics []Topic)

	// OnClientUnsubscribe may filter/mutate the filter list.
	OnClientUnsubscribe(clientID string, filters []string) []string

	// OnMessageAcked is a pure notification of terminal ack.
	OnMessageAcked(clientID string, msg message.Message)
}

// Bus fans the four session hook points out to registered Hooks in
// registration order.
type Bus struct {
	hooks []Hook
}

// NewBus constructs an empty hook bus; a nil/empty Bus behaves as identity.
func NewBus() *Bus {
	return &Bus{}
}

// Register adds h to the bus.
func (b *Bus) Register(h Hook) {
	b.hooks = append(b.hooks, h)
}

// ClientSubscribe runs the foldl chain over topics, skipping hooks that
// don't provide the event.
func (b *Bus) ClientSubscribe(clientID string, topics []Topic) []Topic {
	if b == nil {
		return topics
	}
	for _, h := range b.hooks {
		if h.Provides(ClientSubscribe) {
			topics = h.OnClientSubscribe(clientID, topics)
		}
	}
	return topics
}

// ClientSubscribeAfter runs the foreach notification chain.
func (b *Bus) ClientSubscribeAfter(clientID string, topics []Topic) {
	if b == nil {
		return
	}
	for _, h := range b.hooks {
		if h.Provides(ClientSubscribeAfter) {
			h.OnClientSubscribeAfter(clientID, topics)
		}
	}
}

// ClientUnsubscribe runs the foldl chain over filters.
func (b *Bus) ClientUnsubscribe(clientID string, filters []string) []string {
	if b == nil {
		return filters
	}
	for _, h := range b.hooks {
		if h.Provides(ClientUnsubscribe) {
			filters = h.OnClientUnsubscribe(clientID, filters)
		}
	}
	return filters
}

// MessageAcked runs the foreach notification chain.
func (b *Bus) MessageAcked(clientID string, msg message.Message) {
	if b == nil {
		return
	}
	for _, h := range b.hooks {
		if h.Provides(MessageAcked) {
			h.OnMessageAcked(clientID, msg)
		}
	}
}
