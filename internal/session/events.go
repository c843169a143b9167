package session

import (
	"github.com/lovecc0923/emqttd/internal/hook"
	"github.com/lovecc0923/emqttd/internal/message"
	"github.com/lovecc0923/emqttd/internal/router"
	"github.com/lovecc0923/emqttd/internal/stats"
	"github.com/lovecc0923/emqttd/internal/timer"
)

// The session inbox: one struct per event kind, all routed through the
// actor.Mailbox at the priority named in priority.go.

type evDispatch struct {
	msg message.Message
}

type evTimeout struct {
	kind   timer.Kind
	pktid  uint16 // packet id the timer was armed for
}

type evClientDown struct {
	handle router.ClientHandle
	reason string
}

type evCollectInfo struct{}

type evSessionExpired struct{}

type evDestroy struct {
	reply chan struct{}
}

type evResume struct {
	newClient router.ClientHandle
	done      chan struct{}
}

type evSubscribe struct {
	topics []hook.Topic
	ackFn  func(granted map[string]message.QoS)
}

type evUnsubscribe struct {
	filters []string
}

type evPubAck struct{ pktid uint16 }
type evPubRec struct{ pktid uint16 }
type evPubRel struct{ pktid uint16 }
type evPubComp struct{ pktid uint16 }

// evPublishQoS2 is the synchronous QoS2 inbound request/reply. reply is a
// bounded (size 1) channel so the handler never blocks submitting the
// result.
type evPublishQoS2 struct {
	msg   message.Message
	reply chan error
}

// evBarrier is a test-only synchronization point (see priority.go
// prioBarrier): closing done signals that every event submitted before
// the barrier has already been handled.
type evBarrier struct {
	done chan struct{}
}

// evStatsRequest asks the actor to compute a stats.Snapshot on its own
// goroutine (so it reflects a single consistent view of state) and hand
// it back over reply.
type evStatsRequest struct {
	reply chan stats.Snapshot
}
