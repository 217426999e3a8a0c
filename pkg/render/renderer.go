package render

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"

	"github.com/vango-dev/docsave/internal/errors"
	"github.com/vango-dev/docsave/pkg/dom"
	"github.com/vango-dev/docsave/pkg/format"
	"github.com/vango-dev/docsave/pkg/pubsub"
	"github.com/vango-dev/docsave/pkg/sanitize"
)

// Output dialects, as reported to a Recorder.
const (
	FormatHTML  = "html"
	FormatXHTML = "xhtml"
)

const defaultTracerName = "docsave/render"

// Recorder observes completed serializations.
type Recorder interface {
	ObserveSerialization(format string, d time.Duration, err error)
}

// Config configures a Serializer.
type Config struct {
	// Sanitize configures the cleanup run on every clone.
	Sanitize sanitize.Config

	// Format configures the Reformatter. The zero value selects
	// format.DefaultOptions().
	Format format.Options

	// NoFormat returns the markup as built, skipping pre-formatting and
	// the Reformatter.
	NoFormat bool

	// Bus receives save, warn and beforesave events. May be nil.
	Bus pubsub.Publisher

	// Recorder observes each call. May be nil.
	Recorder Recorder

	// TracerName names the OpenTelemetry tracer (default: "docsave/render").
	TracerName string
}

// Serializer turns document trees into saved snapshot markup. It holds only
// configuration and is safe for concurrent use.
type Serializer struct {
	config    Config
	bus       pubsub.Publisher
	sanitizer *sanitize.Sanitizer
	tracer    trace.Tracer
}

// NewSerializer creates a Serializer. It fails when the sanitizer
// configuration is invalid.
func NewSerializer(config Config) (*Serializer, error) {
	if config.Format.IndentSize == 0 && config.Format.Inline == nil && config.Format.Unformatted == nil {
		config.Format = format.DefaultOptions()
	}
	if config.TracerName == "" {
		config.TracerName = defaultTracerName
	}
	bus := pubsub.OrDiscard(config.Bus)

	san, err := sanitize.New(config.Sanitize, bus)
	if err != nil {
		return nil, err
	}

	return &Serializer{
		config:    config,
		bus:       bus,
		sanitizer: san,
		tracer:    otel.Tracer(config.TracerName),
	}, nil
}

// Bus returns the publisher events are sent to.
func (s *Serializer) Bus() pubsub.Publisher {
	return s.bus
}

// Sanitizer returns the sanitizer run on every clone.
func (s *Serializer) Sanitizer() *sanitize.Sanitizer {
	return s.sanitizer
}

// ToHTML serializes doc as loose HTML5. doc is a document node or an
// <html> element; it is not modified.
func (s *Serializer) ToHTML(ctx context.Context, doc *html.Node) (out string, err error) {
	span, done := s.begin(ctx, FormatHTML)
	defer func() { done(err) }()

	if err := pubsub.Save(s.bus, pubsub.PhaseHTML); err != nil {
		return "", errors.New("E020").Wrap(err)
	}

	clone, root, err := s.prepare(doc)
	if err != nil {
		return "", err
	}
	span.AddEvent("sanitized")

	var buf bytes.Buffer
	writeDoctype(&buf, clone)
	writeHTMLRoot(&buf, root)
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", errors.New("E021").WithSubject(FormatHTML).Wrap(err)
		}
	}
	buf.WriteString("</html>")

	return s.finish(buf.String()), nil
}

// ToXML serializes doc as strict XHTML5. doc is a document node or an
// <html> element; it is not modified.
func (s *Serializer) ToXML(ctx context.Context, doc *html.Node) (out string, err error) {
	span, done := s.begin(ctx, FormatXHTML)
	defer func() { done(err) }()

	if err := pubsub.Save(s.bus, pubsub.PhaseXHTML); err != nil {
		return "", errors.New("E020").Wrap(err)
	}

	clone, root, err := s.prepare(doc)
	if err != nil {
		return "", err
	}
	span.AddEvent("sanitized")

	var buf bytes.Buffer
	writeDoctype(&buf, clone)
	writeXMLRoot(&buf, root)
	if err := s.dumpNode(&buf, root, false); err != nil {
		return "", errors.New("E020").Wrap(err)
	}
	buf.WriteString("</html>")

	return s.finish(buf.String()), nil
}

// prepare clones doc and sanitizes the clone, returning the clone and its
// <html> element.
func (s *Serializer) prepare(doc *html.Node) (*html.Node, *html.Node, error) {
	if doc == nil || dom.DocumentElement(doc) == nil {
		return nil, nil, errors.New("E002")
	}

	clone := dom.Clone(doc)
	if err := s.sanitizer.Sanitize(clone); err != nil {
		return nil, nil, errors.FromError(err, "E020")
	}
	return clone, dom.DocumentElement(clone), nil
}

func (s *Serializer) finish(markup string) string {
	if s.config.NoFormat {
		return markup
	}
	return format.Format(format.PreFormat(markup), s.config.Format)
}

// begin starts a span for one serialization. The returned func ends it and
// reports the outcome to the Recorder.
func (s *Serializer) begin(ctx context.Context, dialect string) (trace.Span, func(error)) {
	if ctx == nil {
		ctx = context.Background()
	}
	_, span := s.tracer.Start(ctx, "docsave.serialize",
		trace.WithAttributes(attribute.String("docsave.format", dialect)),
	)
	start := time.Now()

	return span, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		if s.config.Recorder != nil {
			s.config.Recorder.ObserveSerialization(dialect, time.Since(start), err)
		}
	}
}

// dumpNode writes n in strict XML form. raw disables escaping of text
// children, and is set by the caller for style and script content only.
func (s *Serializer) dumpNode(buf *bytes.Buffer, n *html.Node, raw bool) error {
	switch n.Type {
	case html.DocumentNode:
		return s.dumpChildren(buf, n, raw)

	case html.ElementNode:
		if n.Namespace == "" && elementName(n) == "html" {
			return s.dumpChildren(buf, n, raw)
		}
		return s.dumpElement(buf, n)

	case html.CommentNode:
		buf.WriteString("\n<!--")
		buf.WriteString(n.Data)
		buf.WriteString("-->\n")
		return nil

	case html.TextNode:
		if raw {
			buf.WriteString(n.Data)
		} else {
			buf.WriteString(EscapeText(n.Data))
		}
		return nil

	default:
		return pubsub.Warn(s.bus, "Cannot handle serialising nodes of type: %s", nodeTypeName(n.Type))
	}
}

func (s *Serializer) dumpChildren(buf *bytes.Buffer, n *html.Node, raw bool) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := s.dumpNode(buf, c, raw); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) dumpElement(buf *bytes.Buffer, n *html.Node) error {
	name := elementName(n)

	buf.WriteByte('<')
	buf.WriteString(name)
	hasXMLNS := false
	for _, a := range n.Attr {
		key := dom.AttrName(a)
		if isNumericName(key) {
			continue
		}
		if key == "xmlns" {
			hasXMLNS = true
		}
		writeAttr(buf, key, a.Val)
	}
	if ns := foreignNamespace(n); ns != "" && !hasXMLNS {
		writeAttr(buf, "xmlns", ns)
	}

	if IsSelfClosing(name) {
		buf.WriteString(" />")
		return nil
	}

	buf.WriteByte('>')
	if err := s.dumpChildren(buf, n, isRawTextElement(name)); err != nil {
		return err
	}
	buf.WriteString("</")
	buf.WriteString(name)
	buf.WriteByte('>')
	return nil
}

func nodeTypeName(t html.NodeType) string {
	switch t {
	case html.ErrorNode:
		return "ErrorNode"
	case html.DoctypeNode:
		return "DoctypeNode"
	default:
		return fmt.Sprintf("NodeType(%d)", t)
	}
}
