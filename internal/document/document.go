// Package document assembles and writes per-conversation markdown notes:
// YAML frontmatter, a heading-delimited turn body, and a provenance
// footer.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/geminivault/internal/logging"
)

const (
	// maxFrontmatterTitleRunes caps the title inside the YAML header.
	maxFrontmatterTitleRunes = 100

	// CreatedFormat is the fixed timestamp layout in the frontmatter.
	CreatedFormat = "2006-01-02 15:04:05"
)

// Builder accumulates one conversation's note content.
type Builder struct {
	title     string
	createdAt time.Time
	sourceURL string
	tags      []string
	body      strings.Builder
}

// NewBuilder starts a note for a conversation. The body opens with the
// title as a level-one heading.
func NewBuilder(title string, createdAt time.Time, sourceURL string) *Builder {
	b := &Builder{title: title, createdAt: createdAt, sourceURL: sourceURL}
	fmt.Fprintf(&b.body, "# %s\n\n", title)
	return b
}

// AddPrompt appends a user turn.
func (b *Builder) AddPrompt(markdown string) {
	if markdown == "" {
		return
	}
	fmt.Fprintf(&b.body, "## You\n\n%s\n\n", markdown)
}

// AddAttachment appends one attachment link or placeholder.
func (b *Builder) AddAttachment(link string) {
	if link == "" {
		return
	}
	fmt.Fprintf(&b.body, "%s\n\n", link)
}

// AddResponse appends a model turn, separated from the prompt by a rule.
func (b *Builder) AddResponse(markdown string) {
	fmt.Fprintf(&b.body, "---\n\n## Gemini\n\n%s\n\n", markdown)
}

// SetTags replaces the note's tag list.
func (b *Builder) SetTags(tags []string) {
	b.tags = tags
}

// Render produces the complete note: frontmatter, body, footer.
// importedOn stamps the provenance footer.
func (b *Builder) Render(importedOn time.Time) string {
	footer := fmt.Sprintf("\n---\n*Imported from Google Takeout on %s*", importedOn.Format("2006-01-02"))
	return b.frontmatter() + "\n\n" + b.body.String() + footer
}

// frontmatter builds the YAML header by hand: the format is fixed and the
// title escaping rule (doubled quotes, single line) is part of the
// contract with existing vaults.
func (b *Builder) frontmatter() string {
	title := strings.NewReplacer(`"`, `""`, "\n", " ", "\r", " ").Replace(b.title)
	title = strings.TrimSpace(title)
	if runes := []rune(title); len(runes) > maxFrontmatterTitleRunes {
		title = string(runes[:maxFrontmatterTitleRunes-3]) + "..."
	}

	lines := []string{
		"---",
		`title: "` + title + `"`,
		"created: " + b.createdAt.Format(CreatedFormat),
	}
	if b.sourceURL != "" {
		lines = append(lines, "source: "+b.sourceURL)
	} else {
		lines = append(lines, "source: ''")
	}
	lines = append(lines, "tags:")
	for _, tag := range b.tags {
		if tag != "" {
			lines = append(lines, "  - "+tag)
		}
	}
	lines = append(lines, "---")
	return strings.Join(lines, "\n")
}

// MergeTags concatenates tag lists, dropping empties and duplicates while
// preserving first-encountered order.
func MergeTags(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var merged []string
	for _, list := range lists {
		for _, tag := range list {
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			merged = append(merged, tag)
		}
	}
	return merged
}

// NoteDir returns the directory a note belongs in: the output root,
// optionally extended with YYYY/MM taken from the creation time.
func NoteDir(outputDir string, createdAt time.Time, byDate bool) string {
	if !byDate {
		return outputDir
	}
	return filepath.Join(outputDir, createdAt.Format("2006"), createdAt.Format("01"))
}

// Writer persists notes, or only logs them in dry-run mode.
type Writer struct {
	dryRun bool
	log    *logging.Logger
}

// NewWriter creates a Writer.
func NewWriter(dryRun bool, log *logging.Logger) *Writer {
	return &Writer{dryRun: dryRun, log: log}
}

// Write stores content at path, creating parent directories as needed.
func (w *Writer) Write(path, content string) error {
	if w.dryRun {
		w.log.Info("would create", zap.String("path", path))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating note directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing note: %w", err)
	}
	return nil
}
