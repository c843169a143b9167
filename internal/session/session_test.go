package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovecc0923/emqttd/internal/config"
	"github.com/lovecc0923/emqttd/internal/message"
)

// testConfig uses generous timeouts so ordinary assertion sequences never
// race a retry/expiry timer; tests that specifically exercise timeouts
// override the relevant field with a short duration.
func testConfig() config.SessionConfig {
	cfg := config.Default()
	cfg.UnackRetryInterval = 2 * time.Second
	cfg.AwaitRelTimeout = 2 * time.Second
	cfg.ExpiredAfter = 2 * time.Second
	return cfg
}

// S1 — QoS 1 happy path.
func TestQoS1HappyPath(t *testing.T) {
	client := newFakeClient()
	s := New("c1", false, client, testConfig(), Deps{Router: newFakeRouter()})
	defer s.Destroy()

	s.Dispatch(message.Message{Topic: "t", QoS: message.QoS1, Payload: []byte("x")})
	s.sync()

	delivered := client.Delivered()
	require.Len(t, delivered, 1)
	assert.Equal(t, uint16(1), delivered[0].PacketID)
	assert.False(t, delivered[0].Dup)

	s.PubAck(1)
	s.sync()

	snap := s.Stats()
	assert.Equal(t, 0, snap.InflightQueueLen)
	assert.Equal(t, 0, snap.AwaitingAck)
}

// S2 — QoS 2 sender (session -> client).
func TestQoS2Sender(t *testing.T) {
	client := newFakeClient()
	s := New("c2", false, client, testConfig(), Deps{Router: newFakeRouter()})
	defer s.Destroy()

	s.Dispatch(message.Message{Topic: "t", QoS: message.QoS2, Payload: []byte("x")})
	s.sync()
	require.Len(t, client.Delivered(), 1)
	pktid := client.Delivered()[0].PacketID

	s.PubRec(pktid)
	s.sync()
	snap := s.Stats()
	assert.Equal(t, 0, snap.AwaitingAck)
	assert.Equal(t, 1, snap.AwaitingComp)
	assert.Equal(t, 0, snap.InflightQueueLen)

	s.PubComp(pktid)
	s.sync()
	snap = s.Stats()
	assert.Equal(t, 0, snap.AwaitingComp)
}

// S3 — QoS 2 receiver (client -> session).
func TestQoS2Receiver(t *testing.T) {
	fr := newFakeRouter()
	s := New("c3", false, nil, testConfig(), Deps{Router: fr})
	defer s.Destroy()

	err := s.Publish(message.Message{Topic: "t", QoS: message.QoS2, Payload: []byte("x"), PacketID: 42})
	require.NoError(t, err)

	assert.Empty(t, fr.Published(), "router.Publish must not be called before PUBREL")

	snap := s.Stats()
	assert.Equal(t, 1, snap.AwaitingRel)

	s.PubRel(42)
	s.sync()

	require.Len(t, fr.Published(), 1)
	assert.Equal(t, "t", fr.Published()[0].Topic)

	snap = s.Stats()
	assert.Equal(t, 0, snap.AwaitingRel)
}

// S4 — Resume after offline.
func TestResumeAfterOffline(t *testing.T) {
	client := newFakeClient()
	cfg := testConfig()
	s := New("c4", false, client, cfg, Deps{Router: newFakeRouter()})
	defer s.Destroy()

	s.Dispatch(message.Message{Topic: "a", QoS: message.QoS1, Payload: []byte("A")})
	s.Dispatch(message.Message{Topic: "b", QoS: message.QoS1, Payload: []byte("B")})
	s.sync()
	require.Len(t, client.Delivered(), 2)

	s.Dispatch(message.Message{Topic: "c3rd", QoS: message.QoS2, Payload: []byte("C")})
	s.sync()
	require.Len(t, client.Delivered(), 3)
	thirdPktid := client.Delivered()[2].PacketID
	s.PubRec(thirdPktid)
	s.sync()

	// client goes offline
	close(client.done)
	s.sync()

	snap := s.Stats()
	assert.Nil(t, s.client)
	_ = snap

	// a new QoS1 message arrives while offline -> queued
	s.Dispatch(message.Message{Topic: "d", QoS: message.QoS1, Payload: []byte("D")})
	s.sync()
	snap = s.Stats()
	assert.Equal(t, 1, snap.MessageQueueLen)

	newClient := newFakeClient()
	s.Resume(newClient)

	// Redeliver(PubRel, thirdPktid) happens first.
	require.Equal(t, []uint16{thirdPktid}, newClient.Redelivered())

	delivered := newClient.Delivered()
	require.Len(t, delivered, 3, "two redelivered inflight + one dequeued")
	assert.True(t, delivered[0].Dup)
	assert.Equal(t, "a", delivered[0].Topic)
	assert.True(t, delivered[1].Dup)
	assert.Equal(t, "b", delivered[1].Topic)
	assert.False(t, delivered[2].Dup)
	assert.Equal(t, "d", delivered[2].Topic)
}

// S5 — Inflight cap with backpressure.
func TestInflightCapBackpressure(t *testing.T) {
	client := newFakeClient()
	cfg := testConfig()
	cfg.MaxInflight = 1
	s := New("c5", false, client, cfg, Deps{Router: newFakeRouter()})
	defer s.Destroy()

	s.Dispatch(message.Message{Topic: "a", QoS: message.QoS1})
	s.Dispatch(message.Message{Topic: "b", QoS: message.QoS1})
	s.sync()

	require.Len(t, client.Delivered(), 1)
	snap := s.Stats()
	assert.Equal(t, 1, snap.MessageQueueLen)

	s.PubAck(client.Delivered()[0].PacketID)
	s.sync()

	require.Len(t, client.Delivered(), 2)
	assert.Equal(t, "b", client.Delivered()[1].Topic)
}

// S6 — Retry after timeout.
func TestRetryAfterTimeout(t *testing.T) {
	client := newFakeClient()
	cfg := testConfig()
	cfg.UnackRetryInterval = 50 * time.Millisecond
	s := New("c6", false, client, cfg, Deps{Router: newFakeRouter()})
	defer s.Destroy()

	s.Dispatch(message.Message{Topic: "a", QoS: message.QoS1})
	s.sync()
	require.Len(t, client.Delivered(), 1)
	pktid := client.Delivered()[0].PacketID

	require.Eventually(t, func() bool {
		return len(client.Delivered()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	redelivered := client.Delivered()[1]
	assert.Equal(t, pktid, redelivered.PacketID)
	assert.True(t, redelivered.Dup)
}

// Idempotent resubscribe: two identical subscribes produce one entry and
// are each acked.
func TestSubscribeIdempotent(t *testing.T) {
	fr := newFakeRouter()
	s := New("c7", false, newFakeClient(), testConfig(), Deps{Router: fr})
	defer s.Destroy()

	acks := 0
	ackFn := func(granted map[string]message.QoS) { acks++ }

	s.Subscribe(map[string]message.QoS{"topic/a": message.QoS1}, ackFn)
	s.sync()
	s.Subscribe(map[string]message.QoS{"topic/a": message.QoS1}, ackFn)
	s.sync()

	assert.Equal(t, 2, acks)
	snap := s.Stats()
	assert.Equal(t, 1, snap.Subscriptions)
}

// puback applied twice: first succeeds, second is a no-op.
func TestPubAckTwiceIsNoop(t *testing.T) {
	client := newFakeClient()
	s := New("c8", false, client, testConfig(), Deps{Router: newFakeRouter()})
	defer s.Destroy()

	s.Dispatch(message.Message{Topic: "a", QoS: message.QoS1})
	s.sync()
	pktid := client.Delivered()[0].PacketID

	s.PubAck(pktid)
	s.sync()
	s.PubAck(pktid)
	s.sync()

	snap := s.Stats()
	assert.Equal(t, 0, snap.InflightQueueLen)
}

// QoS2 publish dropped when awaiting_rel is at capacity.
func TestQoS2DroppedAtCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAwaitingRel = 1
	s := New("c9", false, nil, cfg, Deps{Router: newFakeRouter()})
	defer s.Destroy()

	require.NoError(t, s.Publish(message.Message{QoS: message.QoS2, PacketID: 1}))
	err := s.Publish(message.Message{QoS: message.QoS2, PacketID: 2})
	assert.ErrorIs(t, err, ErrDropped)
}

func TestClientDownCleanSessTerminates(t *testing.T) {
	client := newFakeClient()
	s := New("c10", true, client, testConfig(), Deps{Router: newFakeRouter()})

	close(client.done)

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not terminate on ClientDown with clean_sess=true")
	}
}

func TestSessionExpiresAfterTTL(t *testing.T) {
	client := newFakeClient()
	cfg := testConfig()
	cfg.ExpiredAfter = 30 * time.Millisecond
	s := New("c11", false, client, cfg, Deps{Router: newFakeRouter()})

	close(client.done)

	select {
	case <-s.Done():
		assert.ErrorIs(t, s.Err(), ErrExpired)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not expire")
	}
}

// New publishes an initial stats snapshot to the Session Manager on
// construction, the same way each collect-info tick does.
func TestStatsPublishedToManagerOnStart(t *testing.T) {
	mgr := newFakeManager()
	s := New("c12", false, newFakeClient(), testConfig(), Deps{Router: newFakeRouter(), Manager: mgr})
	defer s.Destroy()

	s.sync()
	assert.Equal(t, []string{"c12"}, mgr.Registered())
}

// Resuming with a different, still-connected client handle kicks out the
// old one with the duplicate-identity reason.
func TestResumeKicksOutLiveOldClient(t *testing.T) {
	oldClient := newFakeClient()
	s := New("c13", false, oldClient, testConfig(), Deps{Router: newFakeRouter()})
	defer s.Destroy()

	newClient := newFakeClient()
	s.Resume(newClient)

	kicked, reason := oldClient.Kicked()
	assert.True(t, kicked)
	assert.Equal(t, "duplicate_id", reason)
}

// Retained messages are dispatched only for newly-added filters, never
// for a filter the session was already subscribed to.
func TestSubscribeDispatchesRetainedOnlyForNewFilters(t *testing.T) {
	fr := newFakeRouter()
	ret := newFakeRetained()
	s := New("c14", false, newFakeClient(), testConfig(), Deps{Router: fr, Retained: ret})
	defer s.Destroy()

	s.Subscribe(map[string]message.QoS{"topic/a": message.QoS1}, func(map[string]message.QoS) {})
	s.sync()
	assert.Equal(t, []string{"topic/a"}, ret.Dispatched())

	s.Subscribe(map[string]message.QoS{"topic/a": message.QoS1}, func(map[string]message.QoS) {})
	s.sync()
	assert.Equal(t, []string{"topic/a"}, ret.Dispatched(), "re-subscribing to an existing filter must not redispatch retained messages")
}
