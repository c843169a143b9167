package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityOrdering(t *testing.T) {
	m := NewMailbox()

	// Submit a batch before starting the consumer so priority (not
	// arrival timing) is what determines processing order.
	m.Send(1, "low-a")
	m.Send(5, "high-a")
	m.Send(1, "low-b")
	m.Send(5, "high-b")

	var got []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(func(p interface{}) {
			got = append(got, p.(string))
			if len(got) == 4 {
				m.Close()
			}
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("mailbox did not drain")
	}

	require.Len(t, got, 4)
	assert.Equal(t, []string{"high-a", "high-b", "low-a", "low-b"}, got)
}

func TestCloseDrainsThenStops(t *testing.T) {
	m := NewMailbox()
	m.Send(0, "only")
	m.Close()

	var got []string
	m.Run(func(p interface{}) { got = append(got, p.(string)) })

	assert.Equal(t, []string{"only"}, got)
}
