package types

import (
	"encoding/json"
	"strings"
	"time"
)

type MessageKind int

const (
	TextMessage MessageKind = iota
	FileMessage
)

const (
	kindText = "TEXT"
	kindFile = "FILE"

	// uploadPathPrefix identifies file messages published before the
	// backend added the type discriminator.
	uploadPathPrefix = "/uploads/"
)

func (k MessageKind) String() string {
	if k == FileMessage {
		return kindFile
	}
	return kindText
}

// Message is the atomic unit of chat content. It is created by the
// backend when a publish is accepted and is immutable afterward.
type Message struct {
	Sender    string
	Content   string
	Kind      MessageKind
	FileName  string
	Timestamp time.Time
}

type wireMessage struct {
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Type      string `json:"type,omitempty"`
	FileName  string `json:"fileName,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	wm := wireMessage{
		Sender:   m.Sender,
		Content:  m.Content,
		Type:     m.Kind.String(),
		FileName: m.FileName,
	}
	if !m.Timestamp.IsZero() {
		wm.Timestamp = m.Timestamp.Format(time.RFC3339Nano)
	}
	return json.Marshal(wm)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var wm wireMessage
	if err := json.Unmarshal(data, &wm); err != nil {
		return err
	}

	m.Sender = wm.Sender
	m.Content = wm.Content
	m.FileName = wm.FileName
	m.Kind = resolveKind(wm.Type, wm.Content)

	m.Timestamp = time.Time{}
	if wm.Timestamp != "" {
		ts, err := parseTimestamp(wm.Timestamp)
		if err != nil {
			return err
		}
		m.Timestamp = ts
	}

	return nil
}

// resolveKind applies the two-rule kind decision: the type discriminator
// wins, and records without one are FILE if the content points into the
// backend's upload path.
func resolveKind(typ, content string) MessageKind {
	switch typ {
	case kindFile:
		return FileMessage
	case kindText:
		return TextMessage
	}

	if strings.HasPrefix(content, uploadPathPrefix) {
		return FileMessage
	}
	return TextMessage
}

// parseTimestamp accepts RFC 3339 as well as the zone-less form the
// backend emits for stored history.
func parseTimestamp(s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return ts, nil
	}

	return time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.Local)
}

// DisplayName returns the file name to render for a FILE message,
// falling back to the last path segment of the content reference.
func (m Message) DisplayName() string {
	if m.FileName != "" {
		return m.FileName
	}

	if idx := strings.LastIndex(m.Content, "/"); idx >= 0 {
		return m.Content[idx+1:]
	}
	return m.Content
}

// UploadDescriptor is the result of a successful file upload.
type UploadDescriptor struct {
	ResourceRef string `json:"fileUrl"`
	DisplayName string `json:"fileName"`
}
