package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-chatclient/internal/stats"
	"github.com/stretchr/testify/mock"
)

func newMockStats() *stats.MockStatsUpdater {
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything).Return().Maybe()
	su.On("Incr", mock.Anything).Return().Maybe()
	su.On("Decr", mock.Anything).Return().Maybe()
	su.On("Run").Return().Maybe()
	return su
}

// testBackend is a minimal pub/sub backend for tests: it performs the
// connect handshake, tracks per-connection subscriptions and echoes
// every publish on /app/sendMessage/{room} back to subscribers of
// /topic/room/{room} with a server-assigned timestamp.
type testBackend struct {
	t        *testing.T
	srv      *httptest.Server
	upgrader websocket.Upgrader

	rejectConnect bool
	dropHandshake bool

	mu        sync.Mutex
	dials     int
	conns     []*websocket.Conn
	published []Publish
}

func newTestBackend(t *testing.T) *testBackend {
	tb := &testBackend{t: t}
	tb.srv = httptest.NewServer(http.HandlerFunc(tb.handle))
	t.Cleanup(tb.srv.Close)
	return tb
}

func (tb *testBackend) wsURL() string {
	return "ws" + strings.TrimPrefix(tb.srv.URL, "http") + "/chat"
}

func (tb *testBackend) dialCount() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.dials
}

func (tb *testBackend) publishes() []Publish {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	published := make([]Publish, len(tb.published))
	copy(published, tb.published)
	return published
}

// dropConnections closes every live transport to simulate a backend
// failure.
func (tb *testBackend) dropConnections() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	for _, ws := range tb.conns {
		ws.Close()
	}
	tb.conns = nil
}

func (tb *testBackend) handle(w http.ResponseWriter, r *http.Request) {
	ws, err := tb.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	tb.mu.Lock()
	tb.dials++
	tb.mu.Unlock()

	if tb.dropHandshake {
		ws.Close()
		return
	}

	var frame ClientFrame
	if err := ws.ReadJSON(&frame); err != nil || frame.Connect == nil {
		ws.Close()
		return
	}

	if tb.rejectConnect {
		ws.WriteJSON(&ServerFrame{
			BaseFrame: BaseFrame{Timestamp: Now()},
			Error:     &ErrorFrame{Code: http.StatusForbidden, Detail: "connection refused"},
		})
		ws.Close()
		return
	}

	if err := ws.WriteJSON(&ServerFrame{
		BaseFrame: BaseFrame{Timestamp: Now()},
		Connected: &ConnectedFrame{SessionId: frame.Connect.ClientId},
	}); err != nil {
		ws.Close()
		return
	}

	tb.mu.Lock()
	tb.conns = append(tb.conns, ws)
	tb.mu.Unlock()

	tb.serve(ws)
}

func (tb *testBackend) serve(ws *websocket.Conn) {
	defer ws.Close()

	subs := make(map[string]bool)
	for {
		var frame ClientFrame
		if err := ws.ReadJSON(&frame); err != nil {
			return
		}

		switch {
		case frame.Subscribe != nil:
			subs[frame.Subscribe.Destination] = true
		case frame.Unsubscribe != nil:
			delete(subs, frame.Unsubscribe.Destination)
		case frame.Publish != nil:
			tb.mu.Lock()
			tb.published = append(tb.published, *frame.Publish)
			tb.mu.Unlock()

			tb.echo(ws, subs, frame.Publish)
		}
	}
}

// echo rewrites a publish destination into the matching room topic and
// delivers it back with a timestamp, the way the backend fans out
// accepted messages.
func (tb *testBackend) echo(ws *websocket.Conn, subs map[string]bool, pub *Publish) {
	roomId := strings.TrimPrefix(pub.Destination, "/app/sendMessage/")
	topic := RoomTopic(roomId)
	if !subs[topic] {
		return
	}

	var body map[string]any
	if err := json.Unmarshal(pub.Body, &body); err != nil {
		return
	}
	body["timestamp"] = Now().Format(time.RFC3339Nano)

	raw, err := json.Marshal(body)
	if err != nil {
		return
	}

	ws.WriteJSON(&ServerFrame{
		BaseFrame: BaseFrame{Timestamp: Now()},
		Message:   &MessageFrame{Destination: topic, Body: raw},
	})
}
