// Package diff builds the self-submitting form page that sends a fresh
// snapshot to an external HTML diff service.
//
// The builder never performs HTTP itself; the form is opened by a browser,
// which posts base, oldfile and newcontent to the configured tool.
package diff

import (
	"regexp"
	"strings"

	"github.com/vango-dev/docsave/internal/errors"
	"github.com/vango-dev/docsave/pkg/render"
)

// DefaultTool is the diff service used when none is configured.
const DefaultTool = "https://www5.aptest.com/standards/htmldiff/htmldiff.pl"

// ErrNotConfigured is returned by BuildForm when no diff is possible.
var ErrNotConfigured = errors.New("E030")

// Config locates the diff service and the published version to compare
// against.
type Config struct {
	// Tool is the URL the form posts to.
	Tool string `json:"tool,omitempty"`

	// PreviousURI is the published location of the previous version.
	PreviousURI string `json:"previousURI,omitempty"`

	// PreviousDiffURI overrides PreviousURI as the diff baseline.
	PreviousDiffURI string `json:"previousDiffURI,omitempty"`
}

// Enabled reports whether a tool and a previous version are both set.
func (c Config) Enabled() bool {
	return c.Tool != "" && c.OldFile() != ""
}

// OldFile returns the baseline location, preferring PreviousDiffURI.
func (c Config) OldFile() string {
	if c.PreviousDiffURI != "" {
		return c.PreviousDiffURI
	}
	return c.PreviousURI
}

var lastSegment = regexp.MustCompile(`/[^/]*$`)

// Base returns location with its last path segment removed, keeping the
// trailing slash.
func Base(location string) string {
	return lastSegment.ReplaceAllLiteralString(location, "/")
}

// BuildForm returns the form page posting currentHTML to the diff tool.
// location is the address of the document being saved.
func BuildForm(currentHTML, location string, cfg Config) (string, error) {
	if !cfg.Enabled() {
		return "", ErrNotConfigured
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n")
	b.WriteString("<head><title>Diff form</title></head>\n")
	b.WriteString("<body><form name='form' method='POST' action='")
	b.WriteString(escapeSingle(cfg.Tool))
	b.WriteString("'>\n")
	b.WriteString("<input type='hidden' name='base' value='")
	b.WriteString(escapeSingle(Base(location)))
	b.WriteString("'>\n")
	b.WriteString("<input type='hidden' name='oldfile' value='")
	b.WriteString(escapeSingle(cfg.OldFile()))
	b.WriteString("'>\n")
	b.WriteString(`<input type="hidden" name="newcontent" value="`)
	b.WriteString(render.EscapeAttr(currentHTML))
	b.WriteString("\">\n")
	b.WriteString("<p>Submitting, please wait...</p></form>\n")
	b.WriteString("<script>document.forms.form.submit();</script></body></html>\n")
	return b.String(), nil
}

// escapeSingle escapes a value for a single-quoted attribute.
func escapeSingle(s string) string {
	return strings.ReplaceAll(render.EscapeAttr(s), "'", "&#39;")
}
