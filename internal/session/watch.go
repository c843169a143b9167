package session

import (
	"context"

	"github.com/lovecc0923/emqttd/internal/router"
)

// startWatch installs the liveness watch on handle: a goroutine that
// posts evClientDown into the mailbox when handle.Done() fires, unless
// released first. Returns the cancel function that releases the watch.
func (s *Session) startWatch(handle router.ClientHandle) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-handle.Done():
			s.mailbox.Send(prioAdmin, evClientDown{handle: handle, reason: "connection closed"})
		case <-ctx.Done():
		}
	}()
	return cancel
}
