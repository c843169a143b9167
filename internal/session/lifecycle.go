package session

import (
	"errors"

	"github.com/lovecc0923/emqttd/internal/stats"
	"github.com/lovecc0923/emqttd/internal/timer"
)

// handleDestroy terminates the actor with reason Destroy, regardless of
// clean_sess.
func (s *Session) handleDestroy(ev evDestroy) {
	s.terminate(errDestroy)
	close(ev.reply)
}

var errDestroy = errors.New("session: destroyed")

// handleSessionExpired terminates the actor once expired_after elapses
// with no reconnect.
func (s *Session) handleSessionExpired() {
	s.terminate(ErrExpired)
}

// handleClientDown runs when the liveness watch on the current client
// handle fires.
func (s *Session) handleClientDown(ev evClientDown) {
	if s.client == nil || s.client != ev.handle {
		s.log.Debugf("%s: ClientDown for unrelated handle, ignored", s.clientID)
		return
	}

	if s.cleanSess {
		s.terminate(nil)
		return
	}

	s.client = nil
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	s.expiredTimer = timer.After(s.cfg.ExpiredAfter, func() {
		s.mailbox.Send(prioAdmin, evSessionExpired{})
	})
}

// handleTimeout dispatches the three outstanding-ack timer kinds.
func (s *Session) handleTimeout(ev evTimeout) {
	switch ev.kind {
	case timer.AwaitingAck:
		s.handleAwaitingAckTimeout(ev.pktid)
	case timer.AwaitingRel:
		s.handleAwaitingRelTimeout(ev.pktid)
	case timer.AwaitingComp:
		s.handleAwaitingCompTimeout(ev.pktid)
	}
}

// handleAwaitingAckTimeout fires on unack_retry_interval. If offline,
// drop the awaiting_ack entry (retried on resume instead). If online and
// the packet is still inflight, redeliver it; if the ack raced the timer
// and the packet is gone, log and try to dequeue.
func (s *Session) handleAwaitingAckTimeout(pktid uint16) {
	if _, ok := s.awaitingAck[pktid]; !ok {
		// timer already cancelled/replaced; nothing to do.
		return
	}
	delete(s.awaitingAck, pktid)

	if s.client == nil {
		return
	}

	elem, ok := s.inflightIndex[pktid]
	if !ok {
		s.log.Debugf("%s: ack timeout raced ack for pktid=%d", s.clientID, pktid)
		s.dequeue()
		return
	}

	s.redeliver(elem.Value.(*inflightEntry))
}

// handleAwaitingRelTimeout fires on await_rel_timeout. Drops the buffered
// inbound QoS2 message; the client may re-send with DUP (MQTT's own
// recovery).
func (s *Session) handleAwaitingRelTimeout(pktid uint16) {
	if _, ok := s.awaitingRel[pktid]; !ok {
		return
	}
	s.log.Infof("%s: awaiting_rel timeout, dropping pktid=%d", s.clientID, pktid)
	delete(s.awaitingRel, pktid)
}

// handleAwaitingCompTimeout fires on await_rel_timeout; gives up
// waiting for PUBCOMP.
func (s *Session) handleAwaitingCompTimeout(pktid uint16) {
	if _, ok := s.awaitingComp[pktid]; !ok {
		return
	}
	s.log.Infof("%s: awaiting_comp timeout, giving up on pktid=%d", s.clientID, pktid)
	delete(s.awaitingComp, pktid)
}

// handleCollectInfo publishes a stats snapshot to the Session Manager.
// New sends one of these on construction (the "on start" publish) and,
// if configured, collectLoop sends one on every subsequent tick.
func (s *Session) handleCollectInfo() {
	snap := s.snapshot()
	if s.deps.Manager != nil {
		s.deps.Manager.RegisterSession(s.clientID, snap)
	}
}

// snapshot builds a stats.Snapshot of the current session state. Must
// only be called from the actor goroutine.
func (s *Session) snapshot() stats.Snapshot {
	snap := stats.New(s.clientID)
	snap.CleanSess = s.cleanSess
	snap.Subscriptions = len(s.subscriptions)
	snap.MaxInflight = s.cfg.MaxInflight
	snap.InflightQueueLen = s.inflight.Len()
	snap.MessageQueueLen = s.messageQueue.Len()
	snap.MessageDropped = s.messageQueue.Dropped()
	snap.AwaitingRel = len(s.awaitingRel)
	snap.AwaitingAck = len(s.awaitingAck)
	snap.AwaitingComp = len(s.awaitingComp)
	snap.CreatedAt = s.createdAt
	return snap
}
