package session

import "time"

// sync blocks until every event sent to s before this call has been
// processed by the actor loop. Test-only; production callers never need
// this because every real operation already has its own completion
// signal (ackFn, reply channels, Resume/Destroy's done channel).
func (s *Session) sync() {
	done := make(chan struct{})
	s.mailbox.Send(prioBarrier, evBarrier{done: done})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		panic("session: sync barrier timed out")
	}
}
