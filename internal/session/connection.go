package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-chatclient/internal/stats"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingInterval  = (pongWait * 9) / 10
	handshakeWait = 10 * time.Second
	maxFrameSize  = 64 * 1024
)

type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Conn owns the single transport connection to the messaging backend.
// A dropped transport surfaces as a state change, never as an
// automatic reconnect.
type Conn struct {
	url      string
	clientId string
	dialer   *websocket.Dialer
	log      *log.Logger
	stats    stats.StatsProvider
	onState  func(ConnState)

	mu          sync.Mutex
	state       ConnState
	ws          *websocket.Conn
	subs        map[string]*Subscription
	send        chan *ClientFrame
	stop        chan struct{}
	nextId      int
	connectDone chan struct{}
	connectErr  error
}

func NewConn(wsURL, clientId string, logger *log.Logger, sp stats.StatsProvider) *Conn {
	return &Conn{
		url:      wsURL,
		clientId: clientId,
		dialer:   websocket.DefaultDialer,
		log:      logger,
		stats:    sp,
		subs:     make(map[string]*Subscription),
	}
}

// OnStateChange registers the state observer. Must be called before
// Connect.
func (c *Conn) OnStateChange(fn func(ConnState)) {
	c.onState = fn
}

func (c *Conn) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect establishes the transport and performs the pub/sub
// handshake. Concurrent and repeat calls share a single dial: a call
// made while another is in flight waits for that attempt's result.
func (c *Conn) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case Connected:
		c.mu.Unlock()
		return nil
	case Connecting:
		done := c.connectDone
		c.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}

		c.mu.Lock()
		err := c.connectErr
		c.mu.Unlock()
		return err
	}

	c.state = Connecting
	done := make(chan struct{})
	c.connectDone = done
	c.mu.Unlock()

	ws, err := c.handshake(ctx)

	c.mu.Lock()
	if err != nil {
		c.state = Disconnected
		c.connectErr = err
		close(done)
		c.mu.Unlock()
		return err
	}

	c.ws = ws
	c.send = make(chan *ClientFrame, 256)
	c.stop = make(chan struct{})
	c.state = Connected
	c.connectErr = nil
	close(done)
	c.mu.Unlock()

	c.stats.Incr(stats.ConnectionsOpened)
	c.stats.Incr(stats.ConnectionsActive)

	go c.readPump()
	go c.writePump()

	return nil
}

func (c *Conn) handshake(ctx context.Context) (*websocket.Conn, error) {
	ws, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, &HandshakeError{Err: err}
	}

	frame := &ClientFrame{
		BaseFrame: BaseFrame{Timestamp: Now()},
		Connect:   &Connect{ClientId: c.clientId},
	}
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteJSON(frame); err != nil {
		ws.Close()
		return nil, &HandshakeError{Err: err}
	}

	ws.SetReadDeadline(time.Now().Add(handshakeWait))
	var reply ServerFrame
	if err := ws.ReadJSON(&reply); err != nil {
		ws.Close()
		return nil, &HandshakeError{Err: err}
	}

	if reply.Connected == nil {
		ws.Close()
		detail := "unexpected handshake reply"
		if reply.Error != nil {
			detail = reply.Error.Detail
		}
		return nil, &HandshakeError{Err: errors.New(detail)}
	}

	return ws, nil
}

func (c *Conn) readPump() {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()

	defer c.teardown()

	ws.SetReadLimit(maxFrameSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error { ws.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			return
		}

		var frame ServerFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.log.Println("dropping unparseable frame:", err)
			c.stats.Incr(stats.FramesDropped)
			continue
		}

		switch {
		case frame.Message != nil:
			c.dispatch(frame.Message)
		case frame.Error != nil:
			c.log.Printf("server error frame: %d %s", frame.Error.Code, frame.Error.Detail)
		}
	}
}

// dispatch runs subscription handlers on the read pump goroutine, so
// frames for a topic are delivered in arrival order.
func (c *Conn) dispatch(mf *MessageFrame) {
	c.mu.Lock()
	sub := c.subs[mf.Destination]
	c.mu.Unlock()

	if sub == nil || sub.canceled.Load() {
		return
	}

	c.stats.Incr(stats.MessagesReceived)
	sub.handler(mf)
}

func (c *Conn) writePump() {
	c.mu.Lock()
	ws, send, stop := c.ws, c.send, c.stop
	c.mu.Unlock()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-send:
			bytes, err := json.Marshal(frame)
			if err != nil {
				c.log.Println("failed to serialize frame:", err)
				continue
			}

			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, bytes); err != nil {
				c.log.Printf("write frame: %s", err)
				return
			}
		case <-stop:
			return
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Subscribe registers a handler invoked once per inbound frame on the
// topic. Valid only while connected.
func (c *Conn) Subscribe(topic string, handler func(*MessageFrame)) (*Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Connected {
		return nil, ErrNotConnected
	}

	sub := &Subscription{conn: c, topic: topic, handler: handler}
	c.subs[topic] = sub

	frame := &ClientFrame{
		BaseFrame: BaseFrame{Id: c.nextFrameId(), Timestamp: Now()},
		Subscribe: &Subscribe{Destination: topic},
	}
	if !c.enqueueLocked(frame) {
		delete(c.subs, topic)
		return nil, ErrSendQueueFull
	}

	return sub, nil
}

// Publish queues a payload for the destination. Admission is local
// only; delivery confirmation arrives, if at all, through the
// subscription path.
func (c *Conn) Publish(destination string, body json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Connected {
		return ErrNotConnected
	}

	frame := &ClientFrame{
		BaseFrame: BaseFrame{Id: c.nextFrameId(), Timestamp: Now()},
		Publish:   &Publish{Destination: destination, Body: body},
	}
	if !c.enqueueLocked(frame) {
		return ErrSendQueueFull
	}

	c.stats.Incr(stats.MessagesSent)
	return nil
}

// Disconnect tears down the transport and all subscriptions. Safe to
// call at any time, including when already disconnected.
func (c *Conn) Disconnect() {
	c.teardown()
}

func (c *Conn) teardown() {
	c.mu.Lock()
	if c.state != Connected {
		c.mu.Unlock()
		return
	}

	c.state = Disconnected
	close(c.stop)
	c.ws.Close()
	for _, sub := range c.subs {
		sub.canceled.Store(true)
	}
	c.subs = make(map[string]*Subscription)
	c.mu.Unlock()

	c.stats.Decr(stats.ConnectionsActive)

	if c.onState != nil {
		c.onState(Disconnected)
	}
}

func (c *Conn) enqueueLocked(frame *ClientFrame) bool {
	select {
	case c.send <- frame:
	default:
		c.log.Println("failed to queue frame, channel is full")
		return false
	}

	return true
}

func (c *Conn) nextFrameId() int {
	c.nextId++
	return c.nextId
}

// Subscription is an opaque handle to an active topic subscription.
type Subscription struct {
	conn     *Conn
	topic    string
	handler  func(*MessageFrame)
	canceled atomic.Bool
}

// Cancel invalidates the handle before unregistering it, so frames
// arriving late are never delivered to a stale listener.
func (s *Subscription) Cancel() {
	if s.canceled.Swap(true) {
		return
	}

	c := s.conn
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subs[s.topic] != s {
		return
	}
	delete(c.subs, s.topic)

	if c.state == Connected {
		frame := &ClientFrame{
			BaseFrame:   BaseFrame{Id: c.nextFrameId(), Timestamp: Now()},
			Unsubscribe: &Unsubscribe{Destination: s.topic},
		}
		c.enqueueLocked(frame)
	}
}
