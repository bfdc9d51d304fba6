package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/geminivault/internal/config"
	"github.com/fyrsmithlabs/geminivault/internal/logging"
)

// newTakeout lays out a minimal Takeout tree and returns its root.
func newTakeout(t *testing.T, activityJSON string) string {
	t.Helper()
	root := t.TempDir()
	activityDir := filepath.Join(root, "My Activity", "Gemini Apps")
	require.NoError(t, os.MkdirAll(activityDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(activityDir, "MyActivity.json"), []byte(activityJSON), 0o644))
	return root
}

func newConfig(root, out string) *config.Config {
	return &config.Config{
		TakeoutRoot:    root,
		OutputDir:      out,
		DefaultTags:    []string{"ai/gemini/export"},
		SessionGap:     config.Duration(30 * time.Minute),
		MaxKeywords:    10,
		OrganizeByDate: false,
	}
}

func run(t *testing.T, cfg *config.Config) *Summary {
	t.Helper()
	p := New(cfg, logging.NewNop(), false)
	p.now = func() time.Time { return time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC) }
	summary, err := p.Run()
	require.NoError(t, err)
	return summary
}

const twoConversations = `[
	{"header": "Gemini Apps", "title": "Prompted how do tides work", "titleUrl": "https://gemini.google.com/app/1",
	 "time": "2025-03-14T09:00:00Z", "safeHtmlItem": "<p>The moon pulls the ocean.</p>"},
	{"header": "Gemini Apps", "title": "Prompted and neap tides",
	 "time": "2025-03-14T09:10:00Z", "safeHtmlItem": "<p>Neap tides are weaker tides.</p>"},
	{"header": "Gemini Apps", "title": "Prompted unrelated later question",
	 "time": "2025-03-14T11:00:00Z", "safeHtmlItem": "<p>A different topic entirely.</p>"}
]`

func TestRunWritesNotes(t *testing.T) {
	root := newTakeout(t, twoConversations)
	out := filepath.Join(t.TempDir(), "vault")

	summary := run(t, newConfig(root, out))

	assert.Equal(t, 3, summary.RecordsLoaded)
	assert.Equal(t, 2, summary.Conversations)
	assert.Equal(t, 2, summary.NotesWritten)
	assert.Equal(t, 0, summary.ErrorCount)

	data, err := os.ReadFile(filepath.Join(out, "how do tides work.md"))
	require.NoError(t, err)
	note := string(data)

	assert.Contains(t, note, `title: "how do tides work"`)
	assert.Contains(t, note, "created: 2025-03-14 09:00:00")
	assert.Contains(t, note, "source: https://gemini.google.com/app/1")
	assert.Contains(t, note, "  - ai/gemini/export")
	assert.Contains(t, note, "  - tides") // dominant keyword of both turns
	assert.Contains(t, note, "## You\n\nhow do tides work")
	assert.Contains(t, note, "## Gemini\n\nThe moon pulls the ocean.")
	assert.Contains(t, note, "## Gemini\n\nNeap tides are weaker tides.")
	assert.Contains(t, note, "*Imported from Google Takeout on 2025-08-30*")

	_, err = os.Stat(filepath.Join(out, "unrelated later question.md"))
	assert.NoError(t, err)
}

func TestRunOrganizesByDate(t *testing.T) {
	root := newTakeout(t, twoConversations)
	out := filepath.Join(t.TempDir(), "vault")
	cfg := newConfig(root, out)
	cfg.OrganizeByDate = true

	run(t, cfg)

	_, err := os.Stat(filepath.Join(out, "2025", "03", "how do tides work.md"))
	assert.NoError(t, err)
}

func TestRunCopiesAttachments(t *testing.T) {
	root := newTakeout(t, `[
		{"header": "Gemini Apps", "title": "Prompted look at this", "time": "2025-03-14T09:00:00Z",
		 "safeHtmlItem": "<p>Nice photo.</p>",
		 "attachmentInfo": [{"name": "moon.png", "path": "files/moon.png"}]}
	]`)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "files"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "files", "moon.png"), []byte("img"), 0o644))
	out := filepath.Join(t.TempDir(), "vault")

	summary := run(t, newConfig(root, out))
	assert.Equal(t, 0, summary.WarningCount)

	data, err := os.ReadFile(filepath.Join(out, "look at this.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "![[_attachments/moon.png]]")

	copied, err := os.ReadFile(filepath.Join(out, "_attachments", "moon.png"))
	require.NoError(t, err)
	assert.Equal(t, "img", string(copied))
}

func TestRunMissingAttachmentContinues(t *testing.T) {
	root := newTakeout(t, `[
		{"header": "Gemini Apps", "title": "Prompted first", "time": "2025-03-14T09:00:00Z",
		 "attachmentInfo": [{"name": "gone.png", "path": "files/gone.png"}]},
		{"header": "Gemini Apps", "title": "Prompted second conversation", "time": "2025-03-14T11:00:00Z",
		 "safeHtmlItem": "<p>Still converted.</p>"}
	]`)
	out := filepath.Join(t.TempDir(), "vault")

	summary := run(t, newConfig(root, out))

	assert.Equal(t, 2, summary.NotesWritten)
	assert.Equal(t, 1, summary.WarningCount)

	data, err := os.ReadFile(filepath.Join(out, "first.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "*[Attachment: gone.png - File not found]*")
}

func TestRunDryRunWritesNothing(t *testing.T) {
	root := newTakeout(t, twoConversations)
	out := filepath.Join(t.TempDir(), "vault")
	cfg := newConfig(root, out)
	cfg.DryRun = true

	summary := run(t, cfg)

	assert.True(t, summary.DryRun)
	assert.Equal(t, 2, summary.NotesWritten)
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "dry-run must not create the output directory")
}

func TestRunMissingRootFatal(t *testing.T) {
	cfg := newConfig(filepath.Join(t.TempDir(), "absent"), t.TempDir())
	_, err := New(cfg, logging.NewNop(), false).Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "takeout root")
}

func TestRunMissingActivityFileFatal(t *testing.T) {
	cfg := newConfig(t.TempDir(), t.TempDir())
	_, err := New(cfg, logging.NewNop(), false).Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "activity file")
}

func TestRunNoRecords(t *testing.T) {
	root := newTakeout(t, `[{"header": "Search", "title": "not gemini", "time": "2025-03-14T09:00:00Z"}]`)
	summary := run(t, newConfig(root, t.TempDir()))

	assert.Equal(t, 0, summary.RecordsLoaded)
	assert.Equal(t, 0, summary.Conversations)
	assert.Equal(t, 0, summary.NotesWritten)
}

func TestRunFilenameCollision(t *testing.T) {
	// Two conversations, same title: second note gets a suffix.
	root := newTakeout(t, `[
		{"header": "Gemini Apps", "title": "Prompted same topic", "time": "2025-03-14T09:00:00Z"},
		{"header": "Gemini Apps", "title": "Prompted same topic", "time": "2025-03-14T12:00:00Z"}
	]`)
	out := filepath.Join(t.TempDir(), "vault")

	summary := run(t, newConfig(root, out))
	assert.Equal(t, 2, summary.NotesWritten)

	_, err := os.Stat(filepath.Join(out, "same topic.md"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "same topic_1.md"))
	assert.NoError(t, err)
}

func TestSummaryString(t *testing.T) {
	s := &Summary{RecordsLoaded: 10, RecordsSkipped: 1, Conversations: 3, NotesWritten: 2}
	for i := 0; i < 7; i++ {
		s.AddError("boom")
	}
	out := s.String()

	assert.Contains(t, out, "Processed 10 records (1 skipped) into 3 conversations.")
	assert.Contains(t, out, "Created 2 notes.")
	assert.Contains(t, out, "7 errors encountered:")
	assert.Contains(t, out, "... and 2 more")
	assert.Equal(t, 5, strings.Count(out, "  - boom"))
}

func TestSummaryStringClean(t *testing.T) {
	s := &Summary{DryRun: true, RecordsLoaded: 1, Conversations: 1, NotesWritten: 1}
	out := s.String()
	assert.Contains(t, out, "[Dry Run] Would have created 1 notes.")
	assert.Contains(t, out, "without issues")
}
