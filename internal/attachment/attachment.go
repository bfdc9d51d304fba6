// Package attachment resolves Takeout attachment references to files on
// disk, relocates them into the vault, and emits Obsidian links.
//
// Takeout attachment metadata is inconsistent: some records carry a
// download URL with the relative path embedded after a takeout-download
// marker, some carry a bare relative path, and some carry neither. The
// variant is decided once at ingestion so resolution never has to branch
// on field presence.
package attachment

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/geminivault/internal/logging"
	"github.com/fyrsmithlabs/geminivault/internal/textutil"
)

// Kind identifies how a reference locates its file.
type Kind int

const (
	// Unresolvable means the reference carries no usable path.
	Unresolvable Kind = iota
	// URLEmbeddedPath means the relative path is embedded in a download URL.
	URLEmbeddedPath
	// DirectPath means the reference carries a bare relative path.
	DirectPath
)

// Reference is one attachment descriptor from a Takeout record.
type Reference struct {
	Name string
	Kind Kind
	// Path is the candidate path relative to the Takeout root. Empty for
	// Unresolvable references.
	Path string
}

var downloadPathPattern = regexp.MustCompile(`takeout-download[^/]*/(.+)`)

// NewReference classifies raw attachment metadata into a Reference.
// url wins over path when both yield a candidate.
func NewReference(name, url, path string) Reference {
	ref := Reference{Name: name}
	if ref.Name == "" {
		ref.Name = "Unknown"
	}

	if url != "" && strings.Contains(url, "takeout-download") {
		if m := downloadPathPattern.FindStringSubmatch(url); m != nil {
			ref.Kind = URLEmbeddedPath
			ref.Path = m[1]
			return ref
		}
	}
	if path != "" {
		ref.Kind = DirectPath
		ref.Path = path
		return ref
	}
	return ref
}

// Link classifications by extension.
var (
	imageExtensions = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
		".svg": true, ".webp": true, ".tiff": true, ".tif": true,
	}
	audioExtensions = map[string]bool{
		".mp3": true, ".wav": true, ".ogg": true, ".m4a": true, ".aac": true, ".flac": true,
	}
	videoExtensions = map[string]bool{
		".mp4": true, ".avi": true, ".mov": true, ".mkv": true, ".webm": true, ".flv": true,
	}
)

// Resolver locates referenced files under the Takeout root and copies
// them into the vault's attachments directory.
type Resolver struct {
	root   string
	outDir string
	dryRun bool
	log    *logging.Logger
}

// NewResolver creates a Resolver. outDir is the attachments directory
// under the vault root; in dry-run mode no directories are created and no
// files are copied.
func NewResolver(root, outDir string, dryRun bool, log *logging.Logger) *Resolver {
	return &Resolver{root: root, outDir: outDir, dryRun: dryRun, log: log}
}

// Resolve turns one Reference into an Obsidian link to the relocated
// file. Every failure degrades to an inline placeholder with resolved
// false; Resolve never returns an error so one bad attachment cannot
// abort a conversation.
func (r *Resolver) Resolve(ref Reference) (link string, resolved bool) {
	if ref.Kind == Unresolvable {
		return placeholder(ref.Name, "Path not found"), false
	}

	source := r.findFile(ref.Path)
	if source == "" {
		r.log.Warn("attachment not found", zap.String("path", ref.Path))
		return placeholder(ref.Name, "File not found"), false
	}

	safeName := textutil.SanitizeFilename(filepath.Base(source))
	destName, err := r.destinationName(safeName)
	if err != nil {
		r.log.Error("naming attachment destination", zap.String("source", source), zap.Error(err))
		return placeholder(ref.Name, "Error processing"), false
	}

	if !r.dryRun {
		if err := copyFile(source, filepath.Join(r.outDir, destName)); err != nil {
			r.log.Error("copying attachment", zap.String("source", source), zap.Error(err))
			return placeholder(ref.Name, "Error processing"), false
		}
	}

	relPath := "_attachments/" + destName
	ext := strings.ToLower(filepath.Ext(source))
	if imageExtensions[ext] || audioExtensions[ext] || videoExtensions[ext] {
		return fmt.Sprintf("![[%s]]", relPath), true
	}
	return fmt.Sprintf("[[%s|%s]]", relPath, safeName), true
}

// findFile tries the candidate path directly under the root, then falls
// back to a recursive search for the base filename. Returns "" when the
// file cannot be located.
func (r *Resolver) findFile(relPath string) string {
	direct := filepath.Join(r.root, filepath.FromSlash(relPath))
	if info, err := os.Stat(direct); err == nil && !info.IsDir() {
		return direct
	}

	filename := filepath.Base(filepath.FromSlash(relPath))
	var found string
	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep searching
		}
		if !d.IsDir() && d.Name() == filename {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err == nil && found != "" {
		r.log.Info("found attachment via search", zap.String("path", found))
		return found
	}
	return ""
}

// destinationName computes a collision-free name inside the attachments
// directory. Dry-run mode skips the filesystem probe since nothing will
// be written anyway.
func (r *Resolver) destinationName(safeName string) (string, error) {
	if r.dryRun {
		return safeName, nil
	}
	return textutil.UniqueFilename(r.outDir, safeName)
}

func placeholder(name, reason string) string {
	return fmt.Sprintf("*[Attachment: %s - %s]*", name, reason)
}

// copyFile copies src to dst byte-for-byte, preserving the source's mode
// and modification time.
func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing destination: %w", err)
	}

	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("preserving modification time: %w", err)
	}
	return nil
}
