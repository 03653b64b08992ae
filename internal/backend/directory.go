package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/npezzotti/go-chatclient/internal/types"
)

const requestTimeout = 10 * time.Second

type Room struct {
	RoomID string `json:"roomId"`
}

// DirectoryService is the room directory collaborator: plain
// request/response lookups with no session state.
type DirectoryService interface {
	CreateRoom(ctx context.Context, roomID string) (Room, error)
	JoinRoom(ctx context.Context, roomID string) (Room, error)
	Messages(ctx context.Context, roomID string) ([]types.Message, error)
}

type Directory struct {
	baseURL string
	client  *http.Client
	log     *log.Logger
}

func NewDirectory(baseURL string, logger *log.Logger) *Directory {
	return &Directory{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: requestTimeout},
		log:     logger,
	}
}

func (d *Directory) CreateRoom(ctx context.Context, roomID string) (Room, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.baseURL+"/api/v1/rooms", strings.NewReader(roomID))
	if err != nil {
		return Room{}, fmt.Errorf("create room request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := d.client.Do(req)
	if err != nil {
		return Room{}, fmt.Errorf("create room: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusConflict:
		return Room{}, ErrRoomExists
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Room{}, readRequestError(resp)
	}

	var room Room
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return Room{}, fmt.Errorf("decode room: %w", err)
	}

	if room.RoomID == "" {
		// some backend versions echo only a confirmation string
		room.RoomID = roomID
	}

	return room, nil
}

func (d *Directory) JoinRoom(ctx context.Context, roomID string) (Room, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.roomURL(roomID), nil)
	if err != nil {
		return Room{}, fmt.Errorf("join room request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return Room{}, fmt.Errorf("join room: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		return Room{}, ErrRoomNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Room{}, readRequestError(resp)
	}

	var room Room
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return Room{}, fmt.Errorf("decode room: %w", err)
	}

	return room, nil
}

// Messages fetches the stored history for a room in server order.
func (d *Directory) Messages(ctx context.Context, roomID string) ([]types.Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.roomURL(roomID)+"/messages", nil)
	if err != nil {
		return nil, fmt.Errorf("messages request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readRequestError(resp)
	}

	var messages []types.Message
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}

	return messages, nil
}

func (d *Directory) roomURL(roomID string) string {
	return d.baseURL + "/api/v1/rooms/" + url.PathEscape(roomID)
}

func readRequestError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		body = nil
	}

	return &RequestError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
