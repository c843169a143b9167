// Package session implements the per-client MQTT session core: the state
// machine tracking one logical client's subscriptions and in-flight QoS
// 1/2 deliveries across reconnects.
//
// Grounded on novatif-surgemq's session.Type: a single struct guarding
// serialized access to subscriptions, inflight/ack-queue state, and a
// will message, driven by callbacks from a connection and a dedicated
// publish goroutine. This module keeps that shape but replaces the
// single sync.Mutex + one FIFO publish goroutine with a priority-mailbox
// actor, and replaces the unbounded ack queues with bounded
// awaiting_ack/awaiting_comp/awaiting_rel maps and
// max_inflight/max_awaiting_rel caps.
package session

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/juju/loggo"
	"golang.org/x/sync/errgroup"

	"github.com/lovecc0923/emqttd/internal/actor"
	"github.com/lovecc0923/emqttd/internal/config"
	"github.com/lovecc0923/emqttd/internal/hook"
	"github.com/lovecc0923/emqttd/internal/message"
	"github.com/lovecc0923/emqttd/internal/mqueue"
	"github.com/lovecc0923/emqttd/internal/router"
	"github.com/lovecc0923/emqttd/internal/timer"
)

// subscription is one entry of the ordered, dedup-by-filter subscription
// list.
type subscription struct {
	filter string
	qos    message.QoS
}

// inflightEntry is one (packet_id, message) pair in the inflight
// sequence. Stored in a container/list.List in insertion order so
// redeliver can walk oldest-to-newest.
type inflightEntry struct {
	pktid uint16
	msg   message.Message
}

// awaitingRelEntry pairs a buffered inbound QoS2 PUBLISH with its
// await_rel_timeout timer.
type awaitingRelEntry struct {
	msg   message.Message
	timer *timer.Handle
}

// Deps bundles the external collaborators the session core depends on
// only by contract. Router is required; Retained, Manager, and Hooks may be
// nil (nil Retained/Manager are treated as no-ops, nil Hooks behaves as
// the identity bus per hook.Bus's nil receiver methods).
type Deps struct {
	Router   router.Router
	Retained router.Retained
	Manager  router.Manager
	Hooks    *hook.Bus

	// Queue is the MQueue collaborator. Its own capacity and drop policy
	// are external configuration, out of scope for the session's own
	// SessionConfig; nil defaults to an unbounded, drop-newest queue.
	Queue *mqueue.Queue
}

// Session is one per-client-identity actor. All mutation of
// the fields below happens on the single goroutine running the actor
// loop (run); external callers only ever reach it through the exported
// methods in ops.go, which post events to the mailbox.
type Session struct {
	deps Deps
	cfg  config.SessionConfig
	log  loggo.Logger

	clientID  string
	cleanSess bool
	createdAt time.Time

	mailbox *actor.Mailbox

	// --- actor-owned state below; touched only inside run()/handle* ---

	client       router.ClientHandle
	watchCancel  context.CancelFunc

	nextPacketID uint16

	subscriptions []subscription
	subIndex      map[string]int // filter -> index into subscriptions

	inflight      *list.List // of *inflightEntry, oldest at Front
	inflightIndex map[uint16]*list.Element

	messageQueue *mqueue.Queue

	awaitingAck  map[uint16]*timer.Handle
	awaitingComp map[uint16]*timer.Handle
	awaitingRel  map[uint16]*awaitingRelEntry

	expiredTimer *timer.Handle

	// lifecycle
	stopOnce sync.Once
	stopped  chan struct{}
	stopErr  error

	// runners groups the actor's own goroutines (the mailbox loop and,
	// when configured, the collect-info ticker) so Wait can block until
	// both have actually exited, the way errgroup.Group is used across
	// the pack's service lifecycles for joined goroutine shutdown.
	runners     *errgroup.Group
	collectStop chan struct{}
}

// New constructs a fresh or resumed Session and starts its actor loop and
// (if configured) its stats-collection ticker, and publishes the initial
// stats snapshot to the Session Manager the same way each CollectInfo
// tick does.
func New(clientID string, cleanSess bool, client router.ClientHandle, cfg config.SessionConfig, deps Deps) *Session {
	s := &Session{
		deps:          deps,
		cfg:           cfg,
		log:           newLogger(),
		clientID:      clientID,
		cleanSess:     cleanSess,
		createdAt:     time.Now(),
		mailbox:       actor.NewMailbox(),
		client:        client,
		nextPacketID:  1,
		subIndex:      make(map[string]int),
		inflight:      list.New(),
		inflightIndex: make(map[uint16]*list.Element),
		awaitingAck:   make(map[uint16]*timer.Handle),
		awaitingComp:  make(map[uint16]*timer.Handle),
		awaitingRel:   make(map[uint16]*awaitingRelEntry),
		stopped:       make(chan struct{}),
	}

	s.messageQueue = deps.Queue
	if s.messageQueue == nil {
		s.messageQueue = mqueue.New(0, mqueue.DropNewest)
	}

	if client != nil {
		s.watchCancel = s.startWatch(client)
	}

	var g errgroup.Group
	g.Go(func() error {
		s.mailbox.Run(s.handle)
		return nil
	})

	if cfg.CollectInterval > 0 {
		s.collectStop = make(chan struct{})
		g.Go(func() error {
			s.collectLoop()
			return nil
		})
	}
	s.runners = &g

	s.mailbox.Send(prioCollectInfo, evCollectInfo{})

	return s
}

// handle is the actor's single dispatch point; every event kind maps to
// exactly one handler, all running on the mailbox goroutine.
func (s *Session) handle(payload interface{}) {
	switch ev := payload.(type) {
	case evClientDown:
		s.handleClientDown(ev)
	case evSessionExpired:
		s.handleSessionExpired()
	case evDestroy:
		s.handleDestroy(ev)
	case evResume:
		s.handleResume(ev)
	case evPubRel:
		s.handlePubRel(ev)
	case evPubComp:
		s.handlePubComp(ev)
	case evPubRec:
		s.handlePubRec(ev)
	case evPubAck:
		s.handlePubAck(ev)
	case evUnsubscribe:
		s.handleUnsubscribe(ev)
	case evSubscribe:
		s.handleSubscribe(ev)
	case evTimeout:
		s.handleTimeout(ev)
	case evCollectInfo:
		s.handleCollectInfo()
	case evStatsRequest:
		ev.reply <- s.snapshot()
	case evBarrier:
		close(ev.done)
	case evDispatch:
		s.handleDispatch(ev)
	case evPublishQoS2:
		s.handlePublishQoS2(ev)
	default:
		s.log.Warningf("%s: unknown event %T", s.clientID, payload)
	}
}

func (s *Session) collectLoop() {
	ticker := time.NewTicker(s.cfg.CollectInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.mailbox.Send(prioCollectInfo, evCollectInfo{})
		case <-s.collectStop:
			return
		}
	}
}

// Done reports whether the session actor has terminated.
func (s *Session) Done() <-chan struct{} {
	return s.stopped
}

// Wait blocks until the actor's own goroutines (mailbox loop and, if
// configured, the collect-info ticker) have both returned. Callers that
// only care that the session has logically stopped should use Done
// instead; Wait is for callers that need the goroutines themselves gone
// (e.g. before process exit).
func (s *Session) Wait() {
	<-s.stopped
	if s.runners != nil {
		s.runners.Wait()
	}
}

// Err returns the reason the session actor terminated (nil while running).
func (s *Session) Err() error {
	select {
	case <-s.stopped:
		return s.stopErr
	default:
		return nil
	}
}

// terminate tears the actor down: cancels every owned timer, stops the
// collect-info ticker, closes the mailbox, and unregisters from the
// Session Manager. Must only be called from the actor goroutine.
func (s *Session) terminate(reason error) {
	s.stopOnce.Do(func() {
		s.cancelAllTimers()
		if s.watchCancel != nil {
			s.watchCancel()
		}
		if s.collectStop != nil {
			close(s.collectStop)
		}
		if s.deps.Manager != nil {
			s.deps.Manager.UnregisterSession(s.clientID)
		}
		s.stopErr = reason
		s.mailbox.Close()
		// terminate runs on the actor goroutine itself (every call site
		// is a handler), so waiting on s.runners here would deadlock;
		// the mailbox loop's own goroutine exits once Close drains it,
		// which a caller can observe via Done() without blocking this
		// handler.
		close(s.stopped)
	})
}

func (s *Session) cancelAllTimers() {
	for _, t := range s.awaitingAck {
		t.Stop()
	}
	for _, t := range s.awaitingComp {
		t.Stop()
	}
	for _, e := range s.awaitingRel {
		e.timer.Stop()
	}
	if s.expiredTimer != nil {
		s.expiredTimer.Stop()
	}
}

func newLogger() loggo.Logger {
	l := loggo.GetLogger("broker.session")
	return l
}
