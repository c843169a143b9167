package session

import (
	"github.com/lovecc0923/emqttd/internal/hook"
	"github.com/lovecc0923/emqttd/internal/message"
	"github.com/lovecc0923/emqttd/internal/router"
	"github.com/lovecc0923/emqttd/internal/stats"
)

// Subscribe requests the given (filter, QoS) topics. topics maps filter
// -> requested QoS; ackFn is called exactly once with the echoed or
// granted QoS map.
func (s *Session) Subscribe(topics map[string]message.QoS, ackFn func(granted map[string]message.QoS)) {
	list := make([]hook.Topic, 0, len(topics))
	for f, q := range topics {
		list = append(list, hook.Topic{Filter: f, QoS: q})
	}
	s.mailbox.Send(prioSubscribe, evSubscribe{topics: list, ackFn: ackFn})
}

// Unsubscribe requests removal of the given topic filters.
func (s *Session) Unsubscribe(filters []string) {
	s.mailbox.Send(prioUnsubscribe, evUnsubscribe{filters: filters})
}

// PubAck implements puback(session, pktid): QoS1 completion.
func (s *Session) PubAck(pktid uint16) {
	s.mailbox.Send(prioPubAck, evPubAck{pktid: pktid})
}

// PubRec implements pubrec(session, pktid): QoS2 sender phase 1.
func (s *Session) PubRec(pktid uint16) {
	s.mailbox.Send(prioAckPhase2, evPubRec{pktid: pktid})
}

// PubRel implements pubrel(session, pktid): QoS2 receiver phase 2, the
// inbound commit point.
func (s *Session) PubRel(pktid uint16) {
	s.mailbox.Send(prioAckPhase2, evPubRel{pktid: pktid})
}

// PubComp implements pubcomp(session, pktid): QoS2 sender final.
func (s *Session) PubComp(pktid uint16) {
	s.mailbox.Send(prioAckPhase2, evPubComp{pktid: pktid})
}

// Dispatch is the Router -> Session delivery path. Satisfies
// router.Subscriber.
func (s *Session) Dispatch(msg message.Message) {
	s.mailbox.Send(prioDispatch, evDispatch{msg: msg})
}

// Publish is the QoS2 synchronous inbound path: the caller blocks until
// the session durably records the inbound PUBLISH in awaiting_rel, or
// rejects with ErrDropped. QoS0/1
// messages never reach the session (the caller routes them to the Router
// directly) and calling Publish with QoS other than 2 is a programmer
// error reported as ErrProtocolMismatch.
func (s *Session) Publish(msg message.Message) error {
	if msg.QoS != message.QoS2 {
		return ErrProtocolMismatch
	}
	reply := make(chan error, 1)
	s.mailbox.Send(prioDispatch, evPublishQoS2{msg: msg, reply: reply})
	select {
	case err := <-reply:
		return err
	case <-s.stopped:
		return ErrClosed
	}
}

// Destroy terminates the actor with reason Destroy and blocks until
// teardown completes.
func (s *Session) Destroy() {
	done := make(chan struct{})
	s.mailbox.Send(prioAdmin, evDestroy{reply: done})
	select {
	case <-done:
	case <-s.stopped:
	}
}

// Resume hands this session off to a new client connection. It blocks
// until the handoff (kickout, timer resets, redelivery replay, dequeue)
// has been fully applied.
func (s *Session) Resume(newClient router.ClientHandle) {
	done := make(chan struct{})
	s.mailbox.Send(prioResume, evResume{newClient: newClient, done: done})
	select {
	case <-done:
	case <-s.stopped:
	}
}

// Stats returns a point-in-time snapshot. Safe to call concurrently; it
// posts through the mailbox like any other operation so
// the snapshot reflects a single consistent handler's-eye view of state.
func (s *Session) Stats() stats.Snapshot {
	reply := make(chan stats.Snapshot, 1)
	s.mailbox.Send(prioCollectInfo, evStatsRequest{reply: reply})
	select {
	case snap := <-reply:
		return snap
	case <-s.stopped:
		return stats.Snapshot{ClientID: s.clientID}
	}
}
