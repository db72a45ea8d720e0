package models

import (
	"strings"
	"testing"
	"time"
)

func TestNewID(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	id := NewID(now)
	if !strings.HasPrefix(id, "doc-1700000000000-") {
		t.Errorf("id = %q, want doc-<millis>-<rand> shape", id)
	}
	if id == NewID(now) {
		t.Error("ids from the same instant must differ")
	}
}

func TestTimestampTitle(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	got := TimestampTitle(at)
	if got != "New Document 2026-03-14 09:26:53" {
		t.Errorf("title = %q", got)
	}
}

func TestIsGeneratedTitle(t *testing.T) {
	cases := []struct {
		name  string
		title string
		want  bool
	}{
		{"generated", TimestampTitle(time.Now()), true},
		{"generated fixed instant", "New Document 2026-03-14 09:26:53", true},
		{"prefix only", "New Document", false},
		{"prefix plus words", "New Documentation", false},
		{"prefix plus free text", "New Document notes", false},
		{"malformed timestamp", "New Document 2026-13-99 25:61:61", false},
		{"unrelated", "Meeting Notes", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsGeneratedTitle(tc.title); got != tc.want {
				t.Errorf("IsGeneratedTitle(%q) = %v, want %v", tc.title, got, tc.want)
			}
		})
	}
}

func TestTitleFromContent(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"plain words", "hello world from the editor today", "hello world from the editor"},
		{"heading stripped", "# My Heading\nbody text", "My Heading body text"},
		{"deep heading", "### Deep heading here", "Deep heading here"},
		{"inline markup stripped", "**bold** and _italic_ and `code`", "bold and italic and code"},
		{"link markup stripped", "[label](https://example.com) rest", "labelhttps://example.com rest"},
		{"newlines collapse", "one\n\n\ntwo\nthree", "one two three"},
		{"fewer than five words", "just three words", "just three words"},
		{"empty", "", ""},
		{"whitespace only", "  \n\t  ", ""},
		{"markup only", "# **`", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TitleFromContent(tc.content); got != tc.want {
				t.Errorf("TitleFromContent(%q) = %q, want %q", tc.content, got, tc.want)
			}
		})
	}
}

func TestTitleFromContentCapsLength(t *testing.T) {
	long := strings.Repeat("verylongword", 2) + " " + strings.Repeat("anotherbigword", 3)
	got := TitleFromContent(long)
	if r := []rune(got); len(r) > 50 {
		t.Errorf("title length = %d runes, want <= 50", len(r))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("long title should end with ellipsis: %q", got)
	}
}

func TestTitleFromContentRuneSafe(t *testing.T) {
	word := strings.Repeat("日本語", 5)
	long := strings.Repeat(word+" ", 6)
	got := TitleFromContent(long)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncation: %q", got)
	}
	// The result must still be valid UTF-8 word prefixes, never split
	// mid-rune.
	for _, r := range got {
		if r == '�' {
			t.Fatalf("replacement rune in %q", got)
		}
	}
}

func TestTitleFromFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"notes.md", "notes"},
		{"Report.MD", "Report"},
		{"deep.thoughts.markdown", "deep.thoughts"},
		{"plain.txt", "plain.txt"},
		{".md", ".md"},
	}
	for _, tc := range cases {
		if got := TitleFromFilename(tc.in); got != tc.want {
			t.Errorf("TitleFromFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
