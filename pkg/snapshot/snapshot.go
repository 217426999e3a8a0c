// Package snapshot assembles the save menu: the set of downloadable
// artifacts (HTML, XHTML5, EPUB link, diff page) offered for a document.
package snapshot

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/docsave/internal/errors"
	"github.com/vango-dev/docsave/pkg/diff"
	"github.com/vango-dev/docsave/pkg/pubsub"
	"github.com/vango-dev/docsave/pkg/render"
)

// DefaultEPubGenerator converts a published document to EPUB 3.
const DefaultEPubGenerator = "https://labs.w3.org/epub-generator/cgi-bin/epub-generator.py"

// Artifact IDs.
const (
	IDHTML  = "respec-save-as-html"
	IDXHTML = "respec-save-as-xhtml5"
	IDEPub  = "respec-save-as-epub"
	IDDiff  = "respec-diff"
)

// Artifact is one entry of the save menu.
type Artifact struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	FileName string `json:"fileName"`
	Type     string `json:"type"`
	URL      string `json:"url"`

	// Body is the serialized content. It is nil for link-only artifacts.
	Body []byte `json:"-"`
}

// Options configures an Exporter.
type Options struct {
	Diff diff.Config

	// EPubGenerator is the EPUB conversion service (default:
	// DefaultEPubGenerator).
	EPubGenerator string

	// SaveAs prefixes menu titles (default: "Save as").
	SaveAs string
}

// Exporter produces every snapshot format of a document.
type Exporter struct {
	ser  *render.Serializer
	bus  pubsub.Publisher
	opts Options
}

// New creates an Exporter. A nil bus publishes on the serializer's bus.
func New(ser *render.Serializer, bus pubsub.Publisher, opts Options) *Exporter {
	if bus == nil {
		bus = ser.Bus()
	}
	if opts.Diff.Tool == "" {
		opts.Diff.Tool = diff.DefaultTool
	}
	if opts.EPubGenerator == "" {
		opts.EPubGenerator = DefaultEPubGenerator
	}
	if opts.SaveAs == "" {
		opts.SaveAs = "Save as"
	}
	return &Exporter{ser: ser, bus: bus, opts: opts}
}

// Options returns the effective options.
func (e *Exporter) Options() Options {
	return e.opts
}

// HTML returns the loose HTML5 snapshot.
func (e *Exporter) HTML(ctx context.Context, doc *html.Node) (string, error) {
	return e.ser.ToHTML(ctx, doc)
}

// XHTML returns the strict XHTML5 snapshot.
func (e *Exporter) XHTML(ctx context.Context, doc *html.Node) (string, error) {
	return e.ser.ToXML(ctx, doc)
}

// DiffPage returns the self-submitting form comparing doc, saved at
// location, with the previous version.
func (e *Exporter) DiffPage(ctx context.Context, doc *html.Node, location string) (string, error) {
	if !e.opts.Diff.Enabled() {
		return "", diff.ErrNotConfigured
	}
	if err := pubsub.Save(e.bus, pubsub.PhaseDiffHTML); err != nil {
		return "", errors.New("E020").Wrap(err)
	}

	current, err := e.ser.ToHTML(ctx, doc)
	if err != nil {
		return "", err
	}
	return diff.BuildForm(current, location, e.opts.Diff)
}

// diffPageFrom builds the diff page around an HTML snapshot that has
// already been serialized.
func (e *Exporter) diffPageFrom(current, location string) (string, error) {
	if err := pubsub.Save(e.bus, pubsub.PhaseDiffHTML); err != nil {
		return "", errors.New("E020").Wrap(err)
	}
	return diff.BuildForm(current, location, e.opts.Diff)
}

// EPubURL returns the conversion link for the document at location.
func (e *Exporter) EPubURL(location string) string {
	return EPubURL(e.opts.EPubGenerator, location)
}

// Artifacts returns the save menu for doc in display order. The diff entry
// is present only when diffing is configured; it reuses the HTML snapshot,
// so doc is serialized once per format.
func (e *Exporter) Artifacts(ctx context.Context, doc *html.Node, location string) ([]Artifact, error) {
	htmlOut, err := e.HTML(ctx, doc)
	if err != nil {
		return nil, err
	}
	xhtmlOut, err := e.XHTML(ctx, doc)
	if err != nil {
		return nil, err
	}

	out := []Artifact{
		{
			ID:       IDHTML,
			Title:    e.opts.SaveAs + " HTML",
			FileName: "index.html",
			Type:     "text/html",
			URL:      DataURL(htmlOut),
			Body:     []byte(htmlOut),
		},
		{
			ID:       IDXHTML,
			Title:    e.opts.SaveAs + " XHTML5",
			FileName: "index.xhtml",
			Type:     "application/xhtml+xml",
			URL:      DataURL(xhtmlOut),
			Body:     []byte(xhtmlOut),
		},
		{
			ID:       IDEPub,
			Title:    e.opts.SaveAs + " EPUB 3",
			FileName: "spec.epub",
			Type:     "application/epub+zip",
			URL:      e.EPubURL(location),
		},
	}

	if e.opts.Diff.Enabled() {
		page, err := e.diffPageFrom(htmlOut, location)
		if err != nil {
			return nil, err
		}
		out = append(out, Artifact{
			ID:       IDDiff,
			Title:    "Diff",
			FileName: "diff.html",
			Type:     "text/html",
			URL:      DataURL(page),
			Body:     []byte(page),
		})
	}
	return out, nil
}

// DataURL embeds markup in a text/html data URL.
func DataURL(markup string) string {
	return "data:text/html;charset=utf-8," + EncodeURIComponent(markup)
}

// EPubURL returns the link asking generator to convert the document at
// location.
func EPubURL(generator, location string) string {
	return generator + "?type=respec&url=" + EncodeURIComponent(location)
}

// SourceView wraps markup for display as source text.
func SourceView(markup string) string {
	return "<pre>" + render.EscapeText(markup) + "</pre>"
}

// Menu renders artifacts as the download links of a save dialog.
func Menu(artifacts []Artifact) string {
	var b strings.Builder
	b.WriteString(`<div class="respec-save-buttons">`)
	for _, a := range artifacts {
		b.WriteString("\n<a class=\"respec-save-button\"")
		writeAttr(&b, "id", a.ID)
		writeAttr(&b, "href", a.URL)
		writeAttr(&b, "download", a.FileName)
		writeAttr(&b, "type", a.Type)
		b.WriteByte('>')
		b.WriteString(render.EscapeText(a.Title))
		b.WriteString("</a>")
	}
	b.WriteString("\n</div>\n")
	return b.String()
}

func writeAttr(b *strings.Builder, name, val string) {
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(render.EscapeAttr(val))
	b.WriteByte('"')
}
