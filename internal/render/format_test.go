package render

import (
	"testing"
	"time"

	"github.com/npezzotti/go-chatclient/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestDateLabel(t *testing.T) {
	// 2024-06-15 is a Saturday
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.Local)

	tt := []struct {
		name     string
		ts       time.Time
		expected string
	}{
		{
			name:     "today",
			ts:       time.Date(2024, 6, 15, 8, 30, 0, 0, time.Local),
			expected: "Today",
		},
		{
			name:     "yesterday",
			ts:       time.Date(2024, 6, 14, 23, 59, 0, 0, time.Local),
			expected: "Yesterday",
		},
		{
			name:     "same year",
			ts:       time.Date(2024, 1, 2, 10, 0, 0, 0, time.Local),
			expected: "Tuesday 02 Jan",
		},
		{
			name:     "previous year",
			ts:       time.Date(2023, 12, 25, 10, 0, 0, 0, time.Local),
			expected: "25 Dec 2023",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DateLabel(tc.ts, now))
		})
	}
}

func TestBoundaries(t *testing.T) {
	msg := func(ts time.Time) types.Message {
		return types.Message{Sender: "alice", Content: "hi", Timestamp: ts}
	}

	t.Run("marks date changes", func(t *testing.T) {
		msgs := []types.Message{
			msg(time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)),
			msg(time.Date(2024, 1, 1, 11, 0, 0, 0, time.Local)),
			msg(time.Date(2024, 1, 2, 9, 0, 0, 0, time.Local)),
		}

		assert.Equal(t, []bool{true, false, true}, Boundaries(msgs))
	})

	t.Run("single message", func(t *testing.T) {
		msgs := []types.Message{msg(time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local))}
		assert.Equal(t, []bool{true}, Boundaries(msgs))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Boundaries(nil))
	})
}
