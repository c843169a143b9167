// Package timer provides named, owned one-shot timers keyed by (kind,
// packet_id). Built on time.AfterFunc, the pattern used across the
// retrieved pack for deferred one-shot work (e.g. the liveness scheduler
// in the doublezero client).
package timer

import "time"

// Kind identifies which timeout family a Handle belongs to.
type Kind byte

const (
	AwaitingAck Kind = iota
	AwaitingRel
	AwaitingComp
	SessionExpiredKind
	CollectInfoKind
)

func (k Kind) String() string {
	switch k {
	case AwaitingAck:
		return "AwaitingAckTimeout"
	case AwaitingRel:
		return "AwaitingRelTimeout"
	case AwaitingComp:
		return "AwaitingCompTimeout"
	case SessionExpiredKind:
		return "SessionExpired"
	case CollectInfoKind:
		return "CollectInfo"
	default:
		return "Unknown"
	}
}

// Handle is an owned, cancellable timer. Cancellation is idempotent:
// cancelling an already-fired or already-cancelled handle is a no-op, so
// callers never need to track whether they already cancelled it.
type Handle struct {
	t      *time.Timer
	cancel func() bool
}

// Stop cancels the timer. Safe to call multiple times and safe to call
// after the timer has already fired.
func (h *Handle) Stop() {
	if h == nil || h.t == nil {
		return
	}
	h.t.Stop()
}

// After arms a one-shot timer that invokes fn after d elapses, unless
// cancelled first. The returned Handle is what the session stores in
// awaitingAck / awaitingComp / awaitingRel / expiredTimer.
func After(d time.Duration, fn func()) *Handle {
	h := &Handle{}
	h.t = time.AfterFunc(d, fn)
	return h
}
