// Package export produces downloadable .md artifacts with timestamped
// filenames.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// MIMEType is the content type of exported artifacts.
const MIMEType = "text/markdown"

// timestampPattern matches a previously appended export timestamp so
// repeated exports do not stack suffixes.
var timestampPattern = regexp.MustCompile(`_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}$`)

// Filename builds the export filename for a base name: any previous
// timestamp suffix is stripped, a fresh `_YYYY-MM-DD_HH-MM-SS` suffix is
// appended, and the `.md` extension is ensured.
func Filename(base string, now time.Time) string {
	name := strings.TrimSuffix(base, ".md")
	name = strings.TrimSpace(name)
	name = timestampPattern.ReplaceAllString(name, "")
	// Titles are free-form; keep the artifact a single path element.
	name = strings.NewReplacer("/", "-", "\\", "-").Replace(name)
	if name == "" {
		name = "document"
	}
	return name + now.Format("_2006-01-02_15-04-05") + ".md"
}

// WriteFile writes content to dir under the timestamped filename derived
// from base, creating dir if needed. Returns the full path written.
func WriteFile(dir, base, content string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: mkdir: %w", err)
	}
	path := filepath.Join(dir, Filename(base, now))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("export: write: %w", err)
	}
	return path, nil
}
