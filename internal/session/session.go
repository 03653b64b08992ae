package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/npezzotti/go-chatclient/internal/backend"
	"github.com/npezzotti/go-chatclient/internal/stats"
	"github.com/npezzotti/go-chatclient/internal/types"
	"github.com/teris-io/shortid"
)

type State int

const (
	NotJoined State = iota
	Joining
	Active
	// Stale means the transport dropped mid-session: history stays
	// visible, sends fail, and only an explicit rejoin recovers.
	Stale
)

func (s State) String() string {
	switch s {
	case Joining:
		return "joining"
	case Active:
		return "active"
	case Stale:
		return "stale"
	default:
		return "not joined"
	}
}

// Session sequences the room directory, the connection and the room
// subscription against room membership. At most one room is joined at
// a time.
type Session struct {
	directory backend.DirectoryService
	uploader  backend.UploadService
	wsURL     string
	log       *log.Logger
	stats     stats.StatsProvider

	onMessages func(roomId string, msgs []types.Message)
	onState    func(State)

	mu sync.Mutex
	// generation identifies one join/leave cycle; completions and
	// deliveries carrying a stale generation are discarded.
	generation string
	state      State
	roomId     string
	user       string
	conn       *Conn
	stream     *Stream
	roomSub    *roomSubscription
	transfer   *transferCoordinator
}

func NewSession(directory backend.DirectoryService, uploader backend.UploadService, wsURL string, logger *log.Logger, sp stats.StatsProvider) *Session {
	sp.RegisterMetric(stats.ConnectionsOpened)
	sp.RegisterMetric(stats.ConnectionsActive)
	sp.RegisterMetric(stats.MessagesSent)
	sp.RegisterMetric(stats.MessagesReceived)
	sp.RegisterMetric(stats.FramesDropped)

	return &Session{
		directory: directory,
		uploader:  uploader,
		wsURL:     wsURL,
		log:       logger,
		stats:     sp,
	}
}

// OnMessages registers the listener notified with the full ordered
// sequence after every load and append. Must be set before Join.
func (s *Session) OnMessages(fn func(roomId string, msgs []types.Message)) {
	s.onMessages = fn
}

// OnStateChange registers the state observer. Must be set before Join.
func (s *Session) OnStateChange(fn func(State)) {
	s.onState = fn
}

// Join creates or joins the room, fetches its history, opens the
// connection and attaches the room subscription. Any failure rolls the
// session back to NotJoined with the connection torn down.
func (s *Session) Join(ctx context.Context, roomID, user string, create bool) error {
	if roomID == "" || user == "" {
		return fmt.Errorf("room id and user cannot be empty")
	}

	gen, err := shortid.Generate()
	if err != nil {
		return fmt.Errorf("generate session id: %w", err)
	}

	s.mu.Lock()
	if s.state != NotJoined {
		s.mu.Unlock()
		return ErrAlreadyJoined
	}
	s.state = Joining
	s.generation = gen
	s.mu.Unlock()
	s.notifyState(Joining)

	var room backend.Room
	if create {
		room, err = s.directory.CreateRoom(ctx, roomID)
	} else {
		room, err = s.directory.JoinRoom(ctx, roomID)
	}
	if err != nil {
		s.abortJoin(gen)
		return err
	}

	history, err := s.directory.Messages(ctx, room.RoomID)
	if err != nil {
		s.abortJoin(gen)
		return err
	}

	conn := NewConn(s.wsURL, gen, s.log, s.stats)
	conn.OnStateChange(func(st ConnState) {
		if st == Disconnected {
			s.transportLost(gen)
		}
	})

	if err := conn.Connect(ctx); err != nil {
		s.abortJoin(gen)
		return err
	}

	stream := NewStream()
	stream.SetNotify(func(msgs []types.Message) {
		s.messagesChanged(gen, room.RoomID, msgs)
	})

	rs, err := attachRoom(conn, room.RoomID, stream, s.log, s.stats)
	if err != nil {
		conn.Disconnect()
		s.abortJoin(gen)
		return err
	}

	stream.Load(history)

	s.mu.Lock()
	if s.generation != gen {
		// torn down while joining, discard the half-built session
		s.mu.Unlock()
		rs.detach()
		conn.Disconnect()
		return fmt.Errorf("session closed during join")
	}
	s.state = Active
	s.roomId = room.RoomID
	s.user = user
	s.conn = conn
	s.stream = stream
	s.roomSub = rs
	s.transfer = &transferCoordinator{uploader: s.uploader, pub: conn, log: s.log}
	s.mu.Unlock()

	s.notifyState(Active)
	return nil
}

// Leave detaches the subscription, closes the connection and discards
// the message history. Safe to call in any state.
func (s *Session) Leave() {
	s.mu.Lock()
	if s.state == NotJoined {
		s.mu.Unlock()
		return
	}

	rs, conn := s.roomSub, s.conn
	s.state = NotJoined
	s.generation = ""
	s.roomId = ""
	s.user = ""
	s.roomSub = nil
	s.conn = nil
	s.stream = nil
	s.transfer = nil
	s.mu.Unlock()

	if rs != nil {
		rs.detach()
	}
	if conn != nil {
		conn.Disconnect()
	}

	s.notifyState(NotJoined)
}

// SendText publishes a text message to the active room.
func (s *Session) SendText(text string) error {
	s.mu.Lock()
	if s.state != Active {
		s.mu.Unlock()
		return ErrNotConnected
	}
	conn, roomId, user := s.conn, s.roomId, s.user
	s.mu.Unlock()

	body, err := json.Marshal(types.Message{
		Sender:  user,
		Content: text,
		Kind:    types.TextMessage,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return conn.Publish(SendDestination(roomId), body)
}

// SendFile uploads the payload and publishes a FILE message
// referencing it. The sender's own copy arrives through the
// subscription path like everyone else's.
func (s *Session) SendFile(ctx context.Context, filename string, r io.Reader) error {
	s.mu.Lock()
	if s.state != Active {
		s.mu.Unlock()
		return ErrNotConnected
	}
	tc, roomId, user := s.transfer, s.roomId, s.user
	s.mu.Unlock()

	return tc.send(ctx, roomId, user, filename, r)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomId
}

func (s *Session) CurrentUser() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Messages returns the current ordered history. It stays available in
// the Stale state so a dropped transport never blanks the screen.
func (s *Session) Messages() []types.Message {
	s.mu.Lock()
	stream := s.stream
	s.mu.Unlock()

	if stream == nil {
		return nil
	}
	return stream.Snapshot()
}

func (s *Session) abortJoin(gen string) {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.state = NotJoined
	s.generation = ""
	s.mu.Unlock()

	s.notifyState(NotJoined)
}

func (s *Session) transportLost(gen string) {
	s.mu.Lock()
	if s.generation != gen || s.state != Active {
		s.mu.Unlock()
		return
	}
	s.state = Stale
	s.mu.Unlock()

	s.log.Println("transport lost, session is stale until rejoined")
	s.notifyState(Stale)
}

func (s *Session) messagesChanged(gen, roomId string, msgs []types.Message) {
	s.mu.Lock()
	stale := s.generation != gen
	fn := s.onMessages
	s.mu.Unlock()

	if stale || fn == nil {
		return
	}

	fn(roomId, msgs)
}

func (s *Session) notifyState(st State) {
	if s.onState != nil {
		s.onState(st)
	}
}
