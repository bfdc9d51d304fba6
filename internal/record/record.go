// Package record loads Gemini activity records from a Takeout export.
package record

import (
	"time"

	"github.com/fyrsmithlabs/geminivault/internal/attachment"
)

// Record is one in-scope activity entry from MyActivity.json.
// Immutable once loaded apart from the parsed Instant.
type Record struct {
	Header      string
	Title       string
	TitleURL    string
	Products    []string
	Time        string
	Instant     time.Time
	Body        string // canonical safeHtmlItem content, shape-unwrapped
	Attachments []attachment.Reference
}

// timestampFormats are tried in order by ParseTimestamp. Takeout exports
// have shifted between fractional-second and whole-second variants over
// the years, and some tooling re-exports with a space separator.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a Takeout timestamp string, trying each known
// format. Returns false when no format matches.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
