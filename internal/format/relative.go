package format

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Added renders when an entry was added relative to now ("3 seconds ago").
func Added(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
