package session

// Priority ladder for the mailbox: higher wins. Ties are broken FIFO by
// arrival order, which is what lets acks of the same priority drain in
// the order the client sent them.
const (
	prioAdmin        = 10 // ClientDown / SessionExpired / Destroy
	prioResume       = 9
	prioAckPhase2    = 8 // PubRel / PubComp / PubRec
	prioPubAck       = 7
	prioUnsubscribe  = 6
	prioSubscribe    = 5
	prioTimeout      = 5
	prioCollectInfo  = 2
	prioDispatch     = 1
	prioDefault      = 0

	// prioBarrier is below every real event priority; it is only ever
	// used by tests to wait until all previously-submitted work has
	// drained the mailbox.
	prioBarrier = -1
)
