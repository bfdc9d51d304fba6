// Package pipeline wires the conversion stages together: load records,
// group into conversations, render each conversation into a note.
//
// Failure isolation follows a bulkhead pattern: only missing inputs are
// fatal. Everything below that — a bad timestamp, a mangled HTML field,
// a lost attachment, even a panic while assembling one conversation — is
// contained, counted, and reported in the run summary.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/geminivault/internal/attachment"
	"github.com/fyrsmithlabs/geminivault/internal/config"
	"github.com/fyrsmithlabs/geminivault/internal/document"
	"github.com/fyrsmithlabs/geminivault/internal/keywords"
	"github.com/fyrsmithlabs/geminivault/internal/logging"
	"github.com/fyrsmithlabs/geminivault/internal/record"
	"github.com/fyrsmithlabs/geminivault/internal/render"
	"github.com/fyrsmithlabs/geminivault/internal/session"
	"github.com/fyrsmithlabs/geminivault/internal/textutil"
)

// Pipeline runs one conversion end to end.
type Pipeline struct {
	cfg      *config.Config
	log      *logging.Logger
	progress bool

	// now is swappable in tests; it stamps the note footer.
	now func() time.Time
}

// New creates a Pipeline. progress controls the stderr progress bars.
func New(cfg *config.Config, log *logging.Logger, progress bool) *Pipeline {
	return &Pipeline{cfg: cfg, log: log, progress: progress, now: time.Now}
}

// Run executes the conversion and returns its summary. The returned
// error is reserved for fatal conditions (missing takeout root, missing
// activity file, unreadable archive); everything else is accumulated in
// the summary instead.
func (p *Pipeline) Run() (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString(), DryRun: p.cfg.DryRun}
	log := p.log.With(zap.String("run_id", summary.RunID))

	log.Info("starting conversion",
		zap.String("takeout_root", p.cfg.TakeoutRoot),
		zap.String("output_dir", p.cfg.OutputDir),
		zap.Bool("dry_run", p.cfg.DryRun))

	if _, err := os.Stat(p.cfg.TakeoutRoot); err != nil {
		return nil, fmt.Errorf("takeout root does not exist: %s", p.cfg.TakeoutRoot)
	}
	activityPath := p.cfg.ActivityPath()
	if _, err := os.Stat(activityPath); err != nil {
		return nil, fmt.Errorf("gemini activity file not found: %s", activityPath)
	}

	loader := record.NewLoader(log.Named("loader"), p.progress)
	loaded, err := loader.Load(activityPath)
	if err != nil {
		return nil, err
	}
	summary.RecordsLoaded = len(loaded.Records)
	summary.RecordsSkipped = loaded.Skipped

	if len(loaded.Records) == 0 {
		log.Warn("no valid gemini records found")
		return summary, nil
	}

	conversations := session.Group(loaded.Records, p.cfg.SessionGap.Duration())
	summary.Conversations = len(conversations)
	log.Info("grouped records into conversations",
		zap.Int("records", len(loaded.Records)),
		zap.Int("conversations", len(conversations)))

	renderer := render.New(log.Named("render"))
	resolver := attachment.NewResolver(p.cfg.TakeoutRoot, p.cfg.AttachmentsDir(), p.cfg.DryRun, log.Named("attachments"))
	writer := document.NewWriter(p.cfg.DryRun, log.Named("writer"))

	var bar *progressbar.ProgressBar
	if p.progress {
		bar = progressbar.Default(int64(len(conversations)), "converting conversations")
	}
	for i, conv := range conversations {
		if err := p.convert(conv, renderer, resolver, writer, summary); err != nil {
			log.Error("conversation failed", zap.Int("conversation", i+1), zap.Error(err))
			summary.AddError(fmt.Sprintf("conversation %d: %v", i+1, err))
		} else {
			summary.NotesWritten++
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	log.Info("conversion complete",
		zap.Int("notes", summary.NotesWritten),
		zap.Int("warnings", summary.WarningCount),
		zap.Int("errors", summary.ErrorCount))
	return summary, nil
}

// convert assembles and writes one conversation's note. A panic inside
// any stage is converted to an error so a single pathological
// conversation cannot take down the run.
func (p *Pipeline) convert(conv session.Conversation, renderer *render.Renderer,
	resolver *attachment.Resolver, writer *document.Writer, summary *Summary) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	title := conv.Title()
	builder := document.NewBuilder(title, conv.CreatedAt(), conv.SourceURL())

	var fullText strings.Builder
	for _, rec := range conv.Records {
		prompt := renderer.Render(promptText(rec))
		response := renderer.Render(rec.Body)
		if response.Degraded {
			summary.AddWarning(fmt.Sprintf("degraded html render in %q", title))
		}

		fullText.WriteString(prompt.Markdown)
		fullText.WriteString(" ")
		fullText.WriteString(response.Markdown)
		fullText.WriteString(" ")

		builder.AddPrompt(prompt.Markdown)

		attached := false
		for _, ref := range rec.Attachments {
			link, resolved := resolver.Resolve(ref)
			if !resolved {
				summary.AddWarning(fmt.Sprintf("attachment %q in %q: %s", ref.Name, title, link))
			}
			builder.AddAttachment(link)
			attached = true
		}

		if response.Markdown != "" || attached {
			builder.AddResponse(response.Markdown)
		}
	}

	tags := make([]string, 0, p.cfg.MaxKeywords)
	for _, kw := range keywords.Extract(fullText.String(), p.cfg.MaxKeywords) {
		tags = append(tags, textutil.SanitizeTag(kw))
	}
	builder.SetTags(document.MergeTags(p.cfg.DefaultTags, tags))

	dir := document.NoteDir(p.cfg.OutputDir, conv.CreatedAt(), p.cfg.OrganizeByDate)
	filename := textutil.SanitizeFilename(title) + ".md"
	if !p.cfg.DryRun {
		filename, err = textutil.UniqueFilename(dir, filename)
		if err != nil {
			return err
		}
	}

	return writer.Write(filepath.Join(dir, filename), builder.Render(p.now()))
}

// promptText strips the activity-verb prefix from a record title so the
// user turn reads as typed.
func promptText(rec record.Record) string {
	return strings.TrimSpace(strings.TrimPrefix(rec.Title, "Prompted "))
}
