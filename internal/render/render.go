// Package render converts raw Takeout HTML fragments into clean markdown.
//
// Export payloads are frequently mangled: double-escaped quotes, literal
// \n sequences, stringified python-dict wrappers, stray control bytes.
// The renderer repairs what it can, converts the rest, and degrades to a
// plain tag-strip when conversion fails. Degradation is a first-class
// result, never an error: one malformed record must not abort a run.
package render

import (
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/geminivault/internal/logging"
	"github.com/fyrsmithlabs/geminivault/internal/textutil"
)

// trivialLength is the cleaned-string length below which HTML conversion
// is skipped and the input returned verbatim.
const trivialLength = 3

var (
	wrapperPrefix = regexp.MustCompile(`^\{'html':\s*'`)
	wrapperSuffix = regexp.MustCompile(`'\}$`)
	htmlTag       = regexp.MustCompile(`<[^>]+>`)
	excessNewline = regexp.MustCompile(`\n{3,}`)
	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
	leadingBlank  = regexp.MustCompile(`^\s*\n`)
)

// Result is the outcome of rendering one raw field.
type Result struct {
	Markdown string
	// Degraded is true when HTML conversion failed and the markdown is a
	// best-effort tag-strip of the cleaned input.
	Degraded bool
}

// Renderer converts cleaned HTML fragments to markdown.
type Renderer struct {
	log *logging.Logger
}

// New creates a Renderer.
func New(log *logging.Logger) *Renderer {
	return &Renderer{log: log}
}

// Render cleans raw and converts it to markdown. It never fails: a
// conversion error yields a degraded result with tags stripped.
func (r *Renderer) Render(raw string) Result {
	cleaned := clean(raw)
	if len(strings.TrimSpace(cleaned)) < trivialLength {
		return Result{Markdown: strings.TrimSpace(cleaned)}
	}

	markdown, err := convert(cleaned)
	if err != nil {
		r.log.Warn("html conversion failed, stripping tags", zap.Error(err))
		return Result{Markdown: stripTags(cleaned), Degraded: true}
	}
	return Result{Markdown: postProcess(markdown)}
}

// clean repairs export serialization artifacts before conversion.
func clean(s string) string {
	s = wrapperPrefix.ReplaceAllString(s, "")
	s = wrapperSuffix.ReplaceAllString(s, "")
	s = strings.NewReplacer(`\n`, "\n", `\'`, "'", `\"`, `"`).Replace(s)
	s = textutil.StripControl(s)
	s = textutil.CollapseWhitespace(s)
	return s
}

// convert renders HTML into markdown, substituting explicit paragraph and
// line-break boundaries first so they survive whitespace handling.
func convert(s string) (markdown string, err error) {
	s = strings.ReplaceAll(s, "</p><p>", "</p>\n\n<p>")
	s = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n").Replace(s)

	// The converter recovers its own panics, but guard anyway: this is
	// the one call operating on arbitrarily malformed input.
	defer func() {
		if p := recover(); p != nil {
			err = &panicError{value: p}
		}
	}()
	return htmltomarkdown.ConvertString(s)
}

// postProcess tidies converter output: at most two consecutive newlines,
// no trailing whitespace per line, no leading blank lines.
func postProcess(s string) string {
	s = excessNewline.ReplaceAllString(s, "\n\n")
	s = trailingSpace.ReplaceAllString(s, "\n")
	s = leadingBlank.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// stripTags is the degraded path: drop markup wholesale and collapse what
// remains.
func stripTags(s string) string {
	s = htmlTag.ReplaceAllString(s, "")
	s = textutil.CollapseWhitespace(s)
	return strings.TrimSpace(s)
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("converter panic: %v", e.value)
}
