package session

import "github.com/lovecc0923/emqttd/internal/timer"

// handlePubAck handles QoS1 completion. Unknown pktid is logged and
// ignored — the client may be replaying after reconnect.
func (s *Session) handlePubAck(ev evPubAck) {
	t, ok := s.awaitingAck[ev.pktid]
	if !ok {
		s.log.Debugf("%s: puback for unknown pktid=%d", s.clientID, ev.pktid)
		return
	}

	t.Stop()
	delete(s.awaitingAck, ev.pktid)

	entry := s.removeInflight(ev.pktid)
	if entry != nil {
		s.deps.Hooks.MessageAcked(s.clientID, entry.msg)
	}

	s.dequeue()
}

// handlePubRec handles QoS2 sender phase 1. Moves the packet id from
// awaiting_ack into awaiting_comp and frees its inflight slot — only the
// PUBREL handshake remains, not the original message (resume only
// replays PubRel for awaiting_comp entries, never the message itself).
func (s *Session) handlePubRec(ev evPubRec) {
	t, ok := s.awaitingAck[ev.pktid]
	if !ok {
		s.log.Debugf("%s: pubrec for unknown pktid=%d", s.clientID, ev.pktid)
		return
	}

	t.Stop()
	delete(s.awaitingAck, ev.pktid)

	pktid := ev.pktid
	s.awaitingComp[pktid] = timer.After(s.cfg.AwaitRelTimeout, func() {
		s.mailbox.Send(prioTimeout, evTimeout{kind: timer.AwaitingComp, pktid: pktid})
	})

	entry := s.removeInflight(ev.pktid)
	if entry != nil {
		s.deps.Hooks.MessageAcked(s.clientID, entry.msg)
	}

	s.dequeue()
}

// handlePubRel is the inbound QoS2 commit point. Forwards the buffered
// message to the Router exactly once, here, never earlier.
func (s *Session) handlePubRel(ev evPubRel) {
	entry, ok := s.awaitingRel[ev.pktid]
	if !ok {
		s.log.Debugf("%s: pubrel for unknown pktid=%d", s.clientID, ev.pktid)
		return
	}

	entry.timer.Stop()
	delete(s.awaitingRel, ev.pktid)

	if s.deps.Router != nil {
		if err := s.deps.Router.Publish(entry.msg); err != nil {
			s.log.Errorf("%s: router publish on pubrel pktid=%d failed: %v", s.clientID, ev.pktid, err)
		}
	}
}

// handlePubComp handles QoS2 sender final completion.
func (s *Session) handlePubComp(ev evPubComp) {
	t, ok := s.awaitingComp[ev.pktid]
	if !ok {
		s.log.Debugf("%s: pubcomp for unknown pktid=%d", s.clientID, ev.pktid)
		return
	}
	t.Stop()
	delete(s.awaitingComp, ev.pktid)
}

// removeInflight removes and returns the inflight entry for pktid, or nil
// if absent (ack raced a timer).
func (s *Session) removeInflight(pktid uint16) *inflightEntry {
	elem, ok := s.inflightIndex[pktid]
	if !ok {
		return nil
	}
	delete(s.inflightIndex, pktid)
	s.inflight.Remove(elem)
	return elem.Value.(*inflightEntry)
}
