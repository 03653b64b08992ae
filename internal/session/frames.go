package session

import (
	"encoding/json"
	"time"
)

type BaseFrame struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientFrame is the envelope for everything the client writes on the
// transport. Exactly one of the pointer fields is set.
type ClientFrame struct {
	BaseFrame
	Connect     *Connect     `json:"connect,omitempty"`
	Subscribe   *Subscribe   `json:"subscribe,omitempty"`
	Unsubscribe *Unsubscribe `json:"unsubscribe,omitempty"`
	Publish     *Publish     `json:"publish,omitempty"`
}

type Connect struct {
	ClientId string `json:"client_id"`
}

type Subscribe struct {
	Destination string `json:"destination"`
}

type Unsubscribe struct {
	Destination string `json:"destination"`
}

type Publish struct {
	Destination string          `json:"destination"`
	Body        json.RawMessage `json:"body"`
}

// ServerFrame is the envelope for everything the backend delivers.
type ServerFrame struct {
	BaseFrame
	Connected *ConnectedFrame `json:"connected,omitempty"`
	Message   *MessageFrame   `json:"message,omitempty"`
	Error     *ErrorFrame     `json:"error,omitempty"`
}

type ConnectedFrame struct {
	SessionId string `json:"session_id"`
}

type MessageFrame struct {
	Destination string          `json:"destination"`
	Body        json.RawMessage `json:"body"`
}

type ErrorFrame struct {
	Code   int    `json:"code"`
	Detail string `json:"detail"`
}

// SendDestination is the room-scoped channel outbound messages are
// published to.
func SendDestination(roomID string) string {
	return "/app/sendMessage/" + roomID
}

// RoomTopic is the room-scoped channel inbound messages arrive on.
func RoomTopic(roomID string) string {
	return "/topic/room/" + roomID
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
