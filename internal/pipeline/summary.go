package pipeline

import (
	"fmt"
	"strings"
)

// sampleLimit caps how many warning/error samples the summary keeps and
// prints; the totals are always exact.
const sampleLimit = 5

// Summary aggregates the outcome of one conversion run.
type Summary struct {
	RunID          string
	DryRun         bool
	RecordsLoaded  int
	RecordsSkipped int
	Conversations  int
	NotesWritten   int

	WarningCount   int
	WarningSamples []string
	ErrorCount     int
	ErrorSamples   []string
}

// AddWarning records a non-fatal problem.
func (s *Summary) AddWarning(msg string) {
	s.WarningCount++
	if len(s.WarningSamples) < sampleLimit {
		s.WarningSamples = append(s.WarningSamples, msg)
	}
}

// AddError records a conversation-level failure.
func (s *Summary) AddError(msg string) {
	s.ErrorCount++
	if len(s.ErrorSamples) < sampleLimit {
		s.ErrorSamples = append(s.ErrorSamples, msg)
	}
}

// String renders the end-of-run report.
func (s *Summary) String() string {
	var b strings.Builder

	b.WriteString("--- Conversion Complete ---\n")
	fmt.Fprintf(&b, "Processed %d records (%d skipped) into %d conversations.\n",
		s.RecordsLoaded, s.RecordsSkipped, s.Conversations)
	if s.DryRun {
		fmt.Fprintf(&b, "[Dry Run] Would have created %d notes.\n", s.NotesWritten)
	} else {
		fmt.Fprintf(&b, "Created %d notes.\n", s.NotesWritten)
	}

	writeSamples(&b, "warnings", s.WarningCount, s.WarningSamples)
	writeSamples(&b, "errors", s.ErrorCount, s.ErrorSamples)

	if s.WarningCount == 0 && s.ErrorCount == 0 {
		b.WriteString("Conversion completed without issues.\n")
	}
	return b.String()
}

func writeSamples(b *strings.Builder, kind string, count int, samples []string) {
	if count == 0 {
		return
	}
	fmt.Fprintf(b, "%d %s encountered:\n", count, kind)
	for _, s := range samples {
		fmt.Fprintf(b, "  - %s\n", s)
	}
	if count > len(samples) {
		fmt.Fprintf(b, "  ... and %d more\n", count-len(samples))
	}
}
