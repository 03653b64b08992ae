package session

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned for any operation that requires a live
// connection to the messaging backend.
var ErrNotConnected = errors.New("not connected")

// ErrAlreadyJoined is returned when joining while a room is active.
var ErrAlreadyJoined = errors.New("already in a room")

// ErrSendQueueFull is returned when a publish cannot be admitted locally.
var ErrSendQueueFull = errors.New("send queue is full")

// HandshakeError reports a connect attempt rejected during the
// transport dial or the pub/sub handshake.
type HandshakeError struct {
	Err error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake failed: %s", e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}
