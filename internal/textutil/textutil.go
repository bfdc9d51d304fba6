// Package textutil provides shared text sanitization for filenames and tags.
//
// Output filenames must survive every filesystem the vault may land on,
// and tags must match Obsidian's tag grammar: ^[a-z][a-z0-9\-_/]*$
package textutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxFilenameLength is the maximum length for a sanitized filename.
	MaxFilenameLength = 150

	// DefaultFilename is used when sanitization produces an empty result.
	DefaultFilename = "untitled"
)

var (
	illegalFilenameChars = regexp.MustCompile(`[\\/*?:"<>|]`)
	repeatedDots         = regexp.MustCompile(`\.{2,}`)
	whitespaceRun        = regexp.MustCompile(`\s+`)
	disallowedTagChars   = regexp.MustCompile(`[^a-z0-9\-_/]`)
	repeatedHyphens      = regexp.MustCompile(`-{2,}`)
	controlChars         = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
)

// SanitizeFilename strips characters that are invalid in file names and
// normalizes Unicode.
//
// Rules applied:
//   - NFKD Unicode normalization
//   - Newlines and tabs become spaces
//   - Strips \ / * ? : " < > |
//   - Collapses repeated dots and whitespace runs
//   - Trims leading/trailing spaces and dots
//   - Truncates to MaxFilenameLength
//   - Returns DefaultFilename if the result would be empty
//
// Sanitizing an already-sanitized name returns it unchanged.
func SanitizeFilename(name string) string {
	if name == "" {
		return DefaultFilename
	}

	name = norm.NFKD.String(name)

	name = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(name)
	name = illegalFilenameChars.ReplaceAllString(name, "")
	name = repeatedDots.ReplaceAllString(name, ".")
	name = whitespaceRun.ReplaceAllString(name, " ")

	name = strings.Trim(name, " .")

	if name == "" {
		return DefaultFilename
	}
	if len(name) > MaxFilenameLength {
		name = strings.Trim(truncateRunes(name, MaxFilenameLength), " .")
	}
	return name
}

// SanitizeTag converts a string into a valid Obsidian tag, safe for YAML.
//
// Rules applied:
//   - NFKD Unicode normalization and lowercasing
//   - Keeps only lowercase alphanumerics, hyphens, underscores, slashes
//   - Collapses repeated hyphens
//   - Trims leading/trailing hyphens and slashes
//
// Returns "" when the result is empty or starts with a digit.
func SanitizeTag(name string) string {
	if name == "" {
		return ""
	}

	name = strings.ToLower(norm.NFKD.String(name))

	sanitized := disallowedTagChars.ReplaceAllString(name, "")
	sanitized = repeatedHyphens.ReplaceAllString(sanitized, "-")
	sanitized = strings.Trim(sanitized, "-/")

	if sanitized == "" || unicode.IsDigit(rune(sanitized[0])) {
		return ""
	}
	return sanitized
}

// UniqueFilename returns a filename that does not yet exist in dir,
// appending _<counter> before the extension until free. The directory is
// created if absent.
func UniqueFilename(dir, filename string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}

	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	candidate := filename
	for counter := 1; ; counter++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d%s", base, counter, ext)
	}
}

// truncateRunes cuts s to at most max bytes without splitting a rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := 0
	for i := range s {
		if i > max {
			break
		}
		cut = i
	}
	return s[:cut]
}

// StripControl removes non-printable control characters, keeping newlines
// and tabs.
func StripControl(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// CollapseWhitespace replaces every run of whitespace with a single space.
func CollapseWhitespace(s string) string {
	return whitespaceRun.ReplaceAllString(s, " ")
}
