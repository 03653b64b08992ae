package session

import (
	"encoding/json"
	"log"

	"github.com/npezzotti/go-chatclient/internal/stats"
	"github.com/npezzotti/go-chatclient/internal/types"
)

// roomSubscription bridges one room's topic to the domain model: it
// decodes inbound frames into messages and hands them to the stream in
// arrival order.
type roomSubscription struct {
	roomId string
	stream *Stream
	log    *log.Logger
	stats  stats.StatsProvider
	sub    *Subscription
}

func attachRoom(conn *Conn, roomId string, stream *Stream, logger *log.Logger, sp stats.StatsProvider) (*roomSubscription, error) {
	rs := &roomSubscription{
		roomId: roomId,
		stream: stream,
		log:    logger,
		stats:  sp,
	}

	sub, err := conn.Subscribe(RoomTopic(roomId), rs.handleFrame)
	if err != nil {
		return nil, err
	}
	rs.sub = sub

	return rs, nil
}

func (rs *roomSubscription) handleFrame(mf *MessageFrame) {
	var msg types.Message
	if err := json.Unmarshal(mf.Body, &msg); err != nil {
		rs.log.Printf("dropping undecodable message on room %q: %v", rs.roomId, err)
		rs.stats.Incr(stats.FramesDropped)
		return
	}

	// every delivered message carries a server-assigned timestamp
	if msg.Timestamp.IsZero() {
		rs.log.Printf("dropping message without timestamp on room %q", rs.roomId)
		rs.stats.Incr(stats.FramesDropped)
		return
	}

	rs.stream.Append(msg)
}

func (rs *roomSubscription) detach() {
	rs.sub.Cancel()
}
