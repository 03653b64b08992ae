package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/npezzotti/go-chatclient/internal/backend"
	"github.com/npezzotti/go-chatclient/internal/types"
)

// publisher is the slice of Conn the transfer coordinator needs.
type publisher interface {
	State() ConnState
	Publish(destination string, body json.RawMessage) error
}

// transferCoordinator performs "send a file" as one logical action:
// upload the payload out of band, then publish a FILE message
// referencing the stored resource. Neither step is retried on its own;
// a failed attempt is re-run from the top. A successful upload whose
// publish fails is left in place on the server.
type transferCoordinator struct {
	uploader backend.UploadService
	pub      publisher
	log      *log.Logger
}

func (tc *transferCoordinator) send(ctx context.Context, roomId, sender, filename string, r io.Reader) error {
	// refuse before uploading anything that could never be announced
	if tc.pub.State() != Connected {
		return ErrNotConnected
	}

	desc, err := tc.uploader.Upload(ctx, roomId, sender, filename, r)
	if err != nil {
		return err
	}

	msg := types.Message{
		Sender:   sender,
		Content:  desc.ResourceRef,
		Kind:     types.FileMessage,
		FileName: desc.DisplayName,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal file message: %w", err)
	}

	if err := tc.pub.Publish(SendDestination(roomId), body); err != nil {
		tc.log.Printf("uploaded %q but publish failed: %v", desc.ResourceRef, err)
		return err
	}

	return nil
}
