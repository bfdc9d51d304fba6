// Package session groups a flat record stream into conversations.
//
// Takeout exports carry no conversation identifiers, so the only signal
// available is inactivity: a gap between consecutive records larger than
// the session threshold starts a new conversation.
package session

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/fyrsmithlabs/geminivault/internal/record"
)

// Conversation is an ordered, non-empty run of records whose consecutive
// instants all fall within the session gap.
type Conversation struct {
	Records []record.Record
}

// Group sorts records chronologically (stable, so equal instants keep
// arrival order) and partitions them into conversations. A new
// conversation starts when the gap to the immediately preceding record is
// strictly greater than threshold; a gap exactly equal to the threshold
// continues the current conversation.
func Group(records []record.Record, threshold time.Duration) []Conversation {
	if len(records) == 0 {
		return nil
	}

	sorted := make([]record.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Instant.Before(sorted[j].Instant)
	})

	conversations := []Conversation{{Records: []record.Record{sorted[0]}}}
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].Instant.Sub(sorted[i-1].Instant)
		if gap > threshold {
			conversations = append(conversations, Conversation{Records: []record.Record{sorted[i]}})
		} else {
			last := &conversations[len(conversations)-1]
			last.Records = append(last.Records, sorted[i])
		}
	}
	return conversations
}

// CreatedAt is the instant of the first record.
func (c Conversation) CreatedAt() time.Time {
	return c.Records[0].Instant
}

// SourceURL is the title URL of the first record.
func (c Conversation) SourceURL() string {
	return c.Records[0].TitleURL
}

var titlePrefixes = regexp.MustCompile(`(?i)^(Prompted|Asked|Search)\s+`)

const (
	maxTitleRunes      = 80
	titleTruncateRunes = 77
)

// Title derives a display title from the first record, stripping the
// activity-verb prefixes Takeout prepends and truncating long prompts at
// a word boundary.
func (c Conversation) Title() string {
	title := strings.TrimSpace(titlePrefixes.ReplaceAllString(c.Records[0].Title, ""))
	if title == "" {
		return "Untitled Chat"
	}

	runes := []rune(title)
	if len(runes) <= maxTitleRunes {
		return title
	}

	truncated := string(runes[:titleTruncateRunes])
	if idx := strings.LastIndex(truncated, " "); idx > 0 {
		truncated = truncated[:idx]
	}
	return truncated + "..."
}
