package session

// allocPacketID is the packet-id allocator: monotone ascending
// 1..=65535, wraps to 1, but probes currently-occupied ids (inflight and
// awaiting_comp) and skips them rather than risking a collision with a
// still-outstanding packet.
//
// Grounded on other_examples' axmq-ax session.go NextPacketID, which
// loops "id := next; next++; if next==0 {next=1}; if id not in any
// pending set, return id".
func (s *Session) allocPacketID() uint16 {
	for {
		id := s.nextPacketID
		s.nextPacketID++
		if s.nextPacketID == 0 {
			s.nextPacketID = 1
		}

		if _, inflight := s.inflightIndex[id]; inflight {
			continue
		}
		if _, comp := s.awaitingComp[id]; comp {
			continue
		}
		return id
	}
}
