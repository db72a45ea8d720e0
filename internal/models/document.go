// Package models defines the domain types for Ansuz.
package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTitlePrefix starts every timestamp-derived document title.
const DefaultTitlePrefix = "New Document"

// WelcomeContent is the body of the document synthesized on first launch.
const WelcomeContent = "# Welcome to Ansuz\n\nStart writing your Markdown here...\n"

// Document represents one Markdown file being edited.
//
// ID is assigned at creation and never reused. UpdatedAt is refreshed on
// every content or title mutation and orders the document index
// (most recent first).
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewID generates a unique document identifier. The millisecond prefix
// keeps ids roughly sortable by creation time; the UUID fragment makes
// them collision-free.
func NewID(now time.Time) string {
	return fmt.Sprintf("doc-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

// New creates a document with a generated id and the given title and content.
func New(title, content string, now time.Time) Document {
	return Document{
		ID:        NewID(now),
		Title:     title,
		Content:   content,
		UpdatedAt: now,
	}
}

const titleTimeLayout = "2006-01-02 15:04:05"

// TimestampTitle returns the default title for a freshly created document:
// a fixed prefix plus an ISO-like date and seconds-resolution time.
// Documents created faster than once per second may collide; accepted.
func TimestampTitle(now time.Time) string {
	return DefaultTitlePrefix + " " + now.Format(titleTimeLayout)
}

// IsGeneratedTitle reports whether title was produced by TimestampTitle.
// A user-chosen title that merely starts with the prefix, such as
// "New Documentation", does not count.
func IsGeneratedTitle(title string) bool {
	rest, ok := strings.CutPrefix(title, DefaultTitlePrefix+" ")
	if !ok {
		return false
	}
	_, err := time.Parse(titleTimeLayout, rest)
	return err == nil
}

var (
	headingRe  = regexp.MustCompile(`(?m)^#+\s*`)
	markupRe   = regexp.MustCompile("[*_`~\\[\\]()]")
	newlinesRe = regexp.MustCompile(`\n+`)
	mdExtRe    = regexp.MustCompile(`(?i)\.(md|markdown)$`)
)

// TitleFromContent derives a display title from the first five words of
// the content, after stripping heading markers and inline Markdown
// formatting. Returns "" when the content has no usable words, so the
// caller can fall back to a timestamp title.
func TitleFromContent(content string) string {
	clean := headingRe.ReplaceAllString(content, "")
	clean = markupRe.ReplaceAllString(clean, "")
	clean = newlinesRe.ReplaceAllString(clean, " ")
	clean = strings.TrimSpace(clean)

	words := strings.Fields(clean)
	if len(words) > 5 {
		words = words[:5]
	}
	title := strings.Join(words, " ")
	if title == "" {
		return ""
	}
	if r := []rune(title); len(r) > 50 {
		title = string(r[:47]) + "..."
	}
	return title
}

// TitleFromFilename derives a title from an imported filename by
// stripping a markdown-family extension.
func TitleFromFilename(filename string) string {
	title := mdExtRe.ReplaceAllString(filename, "")
	if title == "" {
		return filename
	}
	return title
}
