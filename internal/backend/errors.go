package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrRoomExists is returned when creating a room whose id is taken.
	ErrRoomExists = errors.New("room already exists")
	// ErrRoomNotFound is returned when joining a room that does not exist.
	ErrRoomNotFound = errors.New("room not found")
)

// RequestError carries the status and body of a failed backend request
// so the caller can surface it verbatim.
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Body)
	}

	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}
