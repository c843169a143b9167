package session

import "errors"

// Sentinel errors for the session's protocol-level failure conditions,
// grounded on gonzalop-mq's pattern of typed sentinel errors for protocol
// conditions (its mqtt_error.go / codes.go), checked with errors.Is
// rather than by string comparison or panic.
var (
	// ErrDropped is returned from Publish (QoS2 sync path) when
	// awaiting_rel is at max_awaiting_rel capacity.
	ErrDropped = errors.New("session: message dropped, awaiting_rel at capacity")

	// ErrProtocolMismatch is returned by Publish when called with a QoS
	// other than 2; only the QoS2 synchronous inbound path runs through
	// the session, so any other QoS is a caller error.
	ErrProtocolMismatch = errors.New("session: protocol mismatch, expected QoS2")

	// ErrExpired marks that the session actor terminated because its
	// persistent-session TTL elapsed with no reconnect.
	ErrExpired = errors.New("session: expired")

	// ErrClosed is returned by operations submitted after the session
	// actor has already terminated.
	ErrClosed = errors.New("session: closed")
)
