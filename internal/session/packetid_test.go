package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lovecc0923/emqttd/internal/message"
)

func TestAllocPacketIDWrapsAndSkipsZero(t *testing.T) {
	s := New("wrap", false, newFakeClient(), testConfig(), Deps{Router: newFakeRouter()})
	defer s.Destroy()

	s.sync()
	s.nextPacketID = 65535
	s.sync()

	id1 := s.allocPacketID()
	assert.Equal(t, uint16(65535), id1)

	id2 := s.allocPacketID()
	assert.Equal(t, uint16(1), id2, "must wrap to 1, never return 0")
}

func TestAllocPacketIDSkipsOccupied(t *testing.T) {
	client := newFakeClient()
	cfg := testConfig()
	s := New("wrap2", false, client, cfg, Deps{Router: newFakeRouter()})
	defer s.Destroy()

	s.Dispatch(message.Message{Topic: "a", QoS: message.QoS1})
	s.sync()
	occupied := client.Delivered()[0].PacketID // 1

	s.nextPacketID = occupied
	s.sync()

	next := s.allocPacketID()
	assert.NotEqual(t, occupied, next, "allocator must skip ids already inflight")
}
