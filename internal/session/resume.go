package session

import "github.com/lovecc0923/emqttd/internal/timer"

// handleResume runs the eight-step resume protocol for a client
// reconnecting with an existing (possibly offline) session identity.
func (s *Session) handleResume(ev evResume) {
	defer close(ev.done)

	// 1. cancel expired_timer if set.
	if s.expiredTimer != nil {
		s.expiredTimer.Stop()
		s.expiredTimer = nil
	}

	// 2. kickout determination.
	needsWatch := s.client == nil
	switch {
	case s.client == nil:
		// nothing to do; needsWatch already true.
	case s.client == ev.newClient:
		// idempotent no-op (defensive path); keep the existing watch,
		// nothing to install.
	default:
		if err := s.client.Kickout("duplicate_id", ev.newClient); err != nil {
			s.log.Errorf("%s: kickout of prior client failed: %v", s.clientID, err)
		}
		if s.watchCancel != nil {
			s.watchCancel()
			s.watchCancel = nil
		}
		needsWatch = true
	}

	// 3. replay PUBREL for every packet we're still waiting on PUBCOMP
	// for, to the NEW client, before touching any state.
	for pktid := range s.awaitingComp {
		if err := ev.newClient.Redeliver(pktid); err != nil {
			s.log.Errorf("%s: redeliver PubRel pktid=%d failed: %v", s.clientID, pktid, err)
		}
	}

	// 4 & 5. cancel and reset awaiting_ack / awaiting_comp.
	for _, t := range s.awaitingAck {
		t.Stop()
	}
	for _, t := range s.awaitingComp {
		t.Stop()
	}
	s.awaitingAck = make(map[uint16]*timer.Handle)
	s.awaitingComp = make(map[uint16]*timer.Handle)

	// 6. install new watch, adopt the new client.
	s.client = ev.newClient
	if needsWatch {
		s.watchCancel = s.startWatch(s.client)
	}

	// 7. redeliver inflight oldest-first; this reinstalls awaiting_ack
	// (and, for QoS2 entries that never got a PUBREC before disconnect,
	// restarts the PUBREC wait via await()).
	for elem := s.inflight.Front(); elem != nil; elem = elem.Next() {
		s.redeliver(elem.Value.(*inflightEntry))
	}

	// 8. drain any queued messages the now-restored window permits.
	s.dequeue()
}
