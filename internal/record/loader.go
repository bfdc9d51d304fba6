package record

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/geminivault/internal/attachment"
	"github.com/fyrsmithlabs/geminivault/internal/logging"
)

// Loader streams records out of a MyActivity.json array.
type Loader struct {
	log      *logging.Logger
	progress bool
}

// NewLoader creates a loader. With progress enabled a spinner is drawn on
// stderr while the archive is consumed.
func NewLoader(log *logging.Logger, progress bool) *Loader {
	return &Loader{log: log, progress: progress}
}

// LoadResult holds loaded records plus counts of what was left behind.
type LoadResult struct {
	Records []Record
	// Skipped counts in-scope records dropped for unparseable timestamps.
	Skipped int
	// OutOfScope counts records that did not match the Gemini heuristic.
	OutOfScope int
}

// Load streams the JSON array at path and returns in-scope records in
// arrival order, each carrying a parsed instant. The array is never
// materialized: elements are decoded one at a time.
func (l *Loader) Load(path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening activity file: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(bufio.NewReaderSize(f, 1<<20))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("reading activity file: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("activity file is not a JSON array (got %v)", tok)
	}

	var bar *progressbar.ProgressBar
	if l.progress {
		bar = progressbar.Default(-1, "loading records")
	}

	result := &LoadResult{}
	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decoding record %d: %w", len(result.Records)+result.Skipped+result.OutOfScope+1, err)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
		l.ingest(raw, result)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	l.log.Info("loaded records",
		zap.Int("records", len(result.Records)),
		zap.Int("skipped", result.Skipped),
		zap.Int("out_of_scope", result.OutOfScope))
	return result, nil
}

// ingest filters and converts one raw array element.
func (l *Loader) ingest(raw []byte, result *LoadResult) {
	item := gjson.ParseBytes(raw)

	header := item.Get("header").Str
	titleURL := item.Get("titleUrl").Str

	var products []string
	for _, p := range item.Get("products").Array() {
		products = append(products, p.Str)
	}

	if !inScope(header, titleURL, products) {
		result.OutOfScope++
		return
	}

	rawTime := item.Get("time").Str
	instant, ok := ParseTimestamp(rawTime)
	if !ok {
		result.Skipped++
		l.log.Debug("skipped record with invalid timestamp", zap.String("time", rawTime))
		return
	}

	rec := Record{
		Header:   header,
		Title:    item.Get("title").Str,
		TitleURL: titleURL,
		Products: products,
		Time:     rawTime,
		Instant:  instant,
		Body:     canonicalBody(item.Get("safeHtmlItem")),
	}
	for _, a := range item.Get("attachmentInfo").Array() {
		rec.Attachments = append(rec.Attachments, attachment.NewReference(
			a.Get("name").Str,
			a.Get("url").Str,
			a.Get("path").Str,
		))
	}
	result.Records = append(result.Records, rec)
}

// inScope decides whether a raw record belongs to Gemini chat history.
// The union of heuristics is preserved from how Takeout has labeled these
// records across export generations (Bard-era product tags included).
func inScope(header, titleURL string, products []string) bool {
	if strings.Contains(header, "Gemini Apps") {
		return true
	}
	for _, p := range products {
		if p == "Gemini" || p == "Bard" {
			return true
		}
	}
	return strings.Contains(titleURL, "gemini.google.com")
}

// canonicalBody flattens the heterogeneous safeHtmlItem shapes into one
// string: plain string, {"html": …} wrapper, arbitrary object with string
// values, or a list of any of these. Wrapper-shape knowledge stays here
// so the renderer only ever sees strings.
func canonicalBody(v gjson.Result) string {
	switch {
	case !v.Exists():
		return ""
	case v.Type == gjson.String:
		return v.Str
	case v.IsArray():
		var parts []string
		for _, item := range v.Array() {
			parts = append(parts, canonicalBody(item))
		}
		return strings.Join(parts, "\n")
	case v.IsObject():
		if html := v.Get("html"); html.Type == gjson.String {
			return html.Str
		}
		var b strings.Builder
		v.ForEach(func(_, value gjson.Result) bool {
			if value.Type == gjson.String {
				b.WriteString(value.Str)
			}
			return true
		})
		return b.String()
	default:
		return v.String()
	}
}
