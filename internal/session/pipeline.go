package session

import (
	"github.com/lovecc0923/emqttd/internal/message"
	"github.com/lovecc0923/emqttd/internal/timer"
)

// handleDispatch is the outbound delivery pipeline's entry point: a
// message routed to this client lands here via Dispatch.
func (s *Session) handleDispatch(ev evDispatch) {
	msg := ev.msg

	if s.client == nil {
		s.messageQueue.Enqueue(msg)
		return
	}

	if msg.QoS == message.QoS0 {
		if err := s.client.Deliver(msg); err != nil {
			s.log.Errorf("%s: deliver QoS0 failed: %v", s.clientID, err)
		}
		return
	}

	if s.inflightRoom() {
		s.deliver(msg)
		return
	}

	s.messageQueue.Enqueue(msg)
}

// inflightRoom reports whether the inflight window has capacity for one
// more QoS1/2 delivery (max_inflight=0 means unbounded).
func (s *Session) inflightRoom() bool {
	return s.cfg.MaxInflight <= 0 || s.inflight.Len() < s.cfg.MaxInflight
}

// deliver assigns a fresh packet id, marks dup=false, sends it to the
// client, records it at the tail of inflight (insertion order), and arms
// the ack-wait timer.
func (s *Session) deliver(msg message.Message) {
	msg.PacketID = s.allocPacketID()
	msg.Dup = false

	if err := s.client.Deliver(msg); err != nil {
		s.log.Errorf("%s: deliver pktid=%d failed: %v", s.clientID, msg.PacketID, err)
	}

	elem := s.inflight.PushBack(&inflightEntry{pktid: msg.PacketID, msg: msg})
	s.inflightIndex[msg.PacketID] = elem

	s.await(msg)
}

// await installs the retry timer for a just-delivered QoS1/2 message.
func (s *Session) await(msg message.Message) {
	pktid := msg.PacketID
	s.awaitingAck[pktid] = timer.After(s.cfg.UnackRetryInterval, func() {
		s.mailbox.Send(prioTimeout, evTimeout{kind: timer.AwaitingAck, pktid: pktid})
	})
}

// dequeue drains the message queue into the inflight window while the
// client is online and capacity remains. Bounded by mqueue's own size so
// it always terminates.
func (s *Session) dequeue() {
	if s.client == nil {
		return
	}
	for s.inflightRoom() {
		msg, ok := s.messageQueue.Dequeue()
		if !ok {
			return
		}
		if msg.QoS == message.QoS0 {
			if err := s.client.Deliver(msg); err != nil {
				s.log.Errorf("%s: dequeue deliver QoS0 failed: %v", s.clientID, err)
			}
			continue
		}
		s.deliver(msg)
	}
}

// redeliver resends an inflight (or resuming) message with dup=true,
// reusing its original packet id, and re-arms the ack wait. QoS0
// messages are just sent, no bookkeeping.
func (s *Session) redeliver(entry *inflightEntry) {
	if s.client == nil {
		return
	}

	msg := entry.msg
	if msg.QoS == message.QoS0 {
		if err := s.client.Deliver(msg); err != nil {
			s.log.Errorf("%s: redeliver QoS0 failed: %v", s.clientID, err)
		}
		return
	}

	msg.Dup = true
	entry.msg = msg

	if err := s.client.Deliver(msg); err != nil {
		s.log.Errorf("%s: redeliver pktid=%d failed: %v", s.clientID, msg.PacketID, err)
	}
	s.await(msg)
}

// handlePublishQoS2 is the synchronous QoS2 inbound publish: buffers the
// PUBLISH in awaiting_rel pending the client's PUBREL, enforcing
// max_awaiting_rel.
func (s *Session) handlePublishQoS2(ev evPublishQoS2) {
	if s.cfg.MaxAwaitingRel > 0 && len(s.awaitingRel) >= s.cfg.MaxAwaitingRel {
		ev.reply <- ErrDropped
		return
	}

	pktid := ev.msg.PacketID
	t := timer.After(s.cfg.AwaitRelTimeout, func() {
		s.mailbox.Send(prioTimeout, evTimeout{kind: timer.AwaitingRel, pktid: pktid})
	})
	s.awaitingRel[pktid] = &awaitingRelEntry{msg: ev.msg, timer: t}

	ev.reply <- nil
}
