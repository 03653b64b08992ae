package render

import (
	"time"

	"github.com/npezzotti/go-chatclient/internal/types"
)

// DateLabel formats a message timestamp into the separator label shown
// above the first message of each day.
func DateLabel(t, now time.Time) string {
	t = t.In(time.Local)
	now = now.In(time.Local)

	if sameDay(t, now) {
		return "Today"
	}
	if sameDay(t, now.AddDate(0, 0, -1)) {
		return "Yesterday"
	}

	if t.Year() == now.Year() {
		return t.Format("Monday 02 Jan")
	}
	return t.Format("02 Jan 2006")
}

// Boundaries reports, for each message, whether it opens a new date
// group: the first message always does, every other message does when
// its local calendar date differs from its predecessor's. Recomputed
// on each render, never stored.
func Boundaries(msgs []types.Message) []bool {
	boundaries := make([]bool, len(msgs))
	for i := range msgs {
		if i == 0 {
			boundaries[i] = true
			continue
		}

		boundaries[i] = !sameDay(
			msgs[i].Timestamp.In(time.Local),
			msgs[i-1].Timestamp.In(time.Local),
		)
	}

	return boundaries
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
