package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalMessage(t *testing.T) {
	t.Run("text message", func(t *testing.T) {
		raw := []byte(`{"sender":"alice","content":"hi","type":"TEXT","timestamp":"2024-01-01T10:00:00Z"}`)

		var m Message
		require.NoError(t, json.Unmarshal(raw, &m))

		assert.Equal(t, "alice", m.Sender)
		assert.Equal(t, "hi", m.Content)
		assert.Equal(t, TextMessage, m.Kind)
		assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), m.Timestamp)
	})

	t.Run("file message", func(t *testing.T) {
		raw := []byte(`{"sender":"alice","content":"/uploads/x.jpg","type":"FILE","fileName":"photo.jpg","timestamp":"2024-01-01T10:00:00Z"}`)

		var m Message
		require.NoError(t, json.Unmarshal(raw, &m))

		assert.Equal(t, FileMessage, m.Kind)
		assert.Equal(t, "photo.jpg", m.FileName)
	})

	t.Run("missing discriminator uses the upload path heuristic", func(t *testing.T) {
		tt := []struct {
			content  string
			expected MessageKind
		}{
			{"/uploads/x.jpg", FileMessage},
			{"plain text", TextMessage},
			{"see /uploads/x.jpg", TextMessage},
		}

		for _, tc := range tt {
			raw, err := json.Marshal(map[string]string{
				"sender":    "alice",
				"content":   tc.content,
				"timestamp": "2024-01-01T10:00:00Z",
			})
			require.NoError(t, err)

			var m Message
			require.NoError(t, json.Unmarshal(raw, &m))
			assert.Equal(t, tc.expected, m.Kind, "content %q", tc.content)
		}
	})

	t.Run("missing timestamp is zero", func(t *testing.T) {
		raw := []byte(`{"sender":"alice","content":"hi"}`)

		var m Message
		require.NoError(t, json.Unmarshal(raw, &m))
		assert.True(t, m.Timestamp.IsZero())
	})

	t.Run("unparsable timestamp", func(t *testing.T) {
		raw := []byte(`{"sender":"alice","content":"hi","timestamp":"not-a-time"}`)

		var m Message
		assert.Error(t, json.Unmarshal(raw, &m))
	})
}

func TestTimestampFormats(t *testing.T) {
	t.Run("rfc3339", func(t *testing.T) {
		ts, err := parseTimestamp("2024-01-01T10:00:00.123Z")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 123000000, time.UTC), ts)
	})

	t.Run("zone-less history form", func(t *testing.T) {
		ts, err := parseTimestamp("2024-01-01T10:00:00.123456")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 123456000, time.Local), ts)
	})
}

func TestMarshalMessage(t *testing.T) {
	m := Message{
		Sender:    "alice",
		Content:   "/uploads/x.jpg",
		Kind:      FileMessage,
		FileName:  "photo.jpg",
		Timestamp: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"sender": "alice",
		"content": "/uploads/x.jpg",
		"type": "FILE",
		"fileName": "photo.jpg",
		"timestamp": "2024-01-01T10:00:00Z"
	}`, string(raw))
}

func TestMarshalRoundTrip(t *testing.T) {
	original := Message{
		Sender:    "alice",
		Content:   "hi",
		Kind:      TextMessage,
		Timestamp: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, original, decoded)
}

func TestDisplayName(t *testing.T) {
	tt := []struct {
		name     string
		msg      Message
		expected string
	}{
		{
			name:     "explicit file name",
			msg:      Message{Content: "/uploads/x.jpg", FileName: "photo.jpg"},
			expected: "photo.jpg",
		},
		{
			name:     "falls back to the last path segment",
			msg:      Message{Content: "/uploads/x.jpg"},
			expected: "x.jpg",
		},
		{
			name:     "content without a path",
			msg:      Message{Content: "x.jpg"},
			expected: "x.jpg",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.msg.DisplayName())
		})
	}
}

func TestMessageKindString(t *testing.T) {
	assert.Equal(t, "TEXT", TextMessage.String())
	assert.Equal(t, "FILE", FileMessage.String())
}
