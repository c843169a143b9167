package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovecc0923/emqttd/internal/message"
)

type recordingSubscriber struct {
	got []message.Message
}

func (s *recordingSubscriber) Dispatch(msg message.Message) {
	s.got = append(s.got, msg)
}

func TestInMemoryPublishSubscribe(t *testing.T) {
	r := NewInMemory()
	sub := &recordingSubscriber{}

	granted, err := r.Subscribe("client-1", map[string]message.QoS{"a/b": message.QoS1}, sub)
	require.NoError(t, err)
	assert.Equal(t, message.QoS1, granted["a/b"])

	require.NoError(t, r.Publish(message.Message{Topic: "a/b", Payload: []byte("x")}))
	require.Len(t, sub.got, 1)
	assert.Equal(t, []byte("x"), sub.got[0].Payload)

	require.NoError(t, r.Unsubscribe("client-1", []string{"a/b"}))
	require.NoError(t, r.Publish(message.Message{Topic: "a/b"}))
	assert.Len(t, sub.got, 1, "no further dispatch after unsubscribe")
}

func TestInMemoryUnsubscribeUnknownFilterIsNoop(t *testing.T) {
	r := NewInMemory()
	assert.NoError(t, r.Unsubscribe("client-1", []string{"never/subscribed"}))
}
