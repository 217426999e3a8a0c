package render

import (
	"bytes"

	"golang.org/x/net/html"

	"github.com/vango-dev/docsave/pkg/dom"
)

// writeDoctype writes the document type line. Public and system IDs are
// copied verbatim when the document declares a public ID.
func writeDoctype(buf *bytes.Buffer, doc *html.Node) {
	buf.WriteString("<!DOCTYPE html")
	if dt, ok := dom.FindDoctype(doc); ok && dt.PublicID != "" {
		buf.WriteString(" PUBLIC '")
		buf.WriteString(dt.PublicID)
		buf.WriteString("' '")
		buf.WriteString(dt.SystemID)
		buf.WriteString("'")
	}
	buf.WriteString(">\n")
}

// writeHTMLRoot writes the opening <html> tag for loose HTML. xmlns and
// xml:lang are XML-only and are dropped.
func writeHTMLRoot(buf *bytes.Buffer, root *html.Node) {
	buf.WriteString("<html")
	for _, a := range root.Attr {
		name := dom.AttrName(a)
		if name == "xmlns" || name == "xml:lang" {
			continue
		}
		writeAttr(buf, name, a.Val)
	}
	buf.WriteString(">\n")
}

// writeXMLRoot writes the opening <html> tag for XHTML, declaring the
// XHTML namespace when the root does not.
func writeXMLRoot(buf *bytes.Buffer, root *html.Node) {
	buf.WriteString("<html")
	hasXMLNS := false
	for _, a := range root.Attr {
		name := dom.AttrName(a)
		if name == "xmlns" {
			hasXMLNS = true
		}
		writeAttr(buf, name, a.Val)
	}
	if !hasXMLNS {
		writeAttr(buf, "xmlns", NamespaceXHTML)
	}
	buf.WriteString(">\n")
}

func writeAttr(buf *bytes.Buffer, name, val string) {
	buf.WriteByte(' ')
	buf.WriteString(name)
	buf.WriteString(`="`)
	buf.WriteString(EscapeAttr(val))
	buf.WriteByte('"')
}
