package render

import (
	"strings"

	"golang.org/x/net/html"
)

// selfClosingElements are written as a single "<tag />" in strict mode.
// Any children they carry are dropped.
var selfClosingElements = map[string]bool{
	"br":       true,
	"img":      true,
	"input":    true,
	"area":     true,
	"base":     true,
	"basefont": true,
	"col":      true,
	"isindex":  true,
	"link":     true,
	"meta":     true,
	"param":    true,
	"hr":       true,
}

// IsSelfClosing reports whether tag is written as "<tag />" by ToXML.
func IsSelfClosing(tag string) bool {
	return selfClosingElements[tag]
}

// isRawTextElement reports whether text children of tag are written
// without escaping.
func isRawTextElement(tag string) bool {
	return tag == "style" || tag == "script"
}

// Namespace URIs.
const (
	NamespaceXHTML  = "http://www.w3.org/1999/xhtml"
	NamespaceSVG    = "http://www.w3.org/2000/svg"
	NamespaceMathML = "http://www.w3.org/1998/Math/MathML"
)

// elementName returns the name to write for an element: lowercase for
// HTML elements, as parsed for SVG and MathML (whose names are
// case-sensitive, e.g. foreignObject).
func elementName(n *html.Node) string {
	if n.Namespace == "" {
		return strings.ToLower(n.Data)
	}
	return n.Data
}

// foreignNamespace returns the namespace URI to declare on an element
// whose namespace differs from its parent's: SVG or MathML content opening
// inside HTML, or HTML content (such as the body of foreignObject) nested
// inside SVG or MathML. It returns "" when no declaration is needed.
func foreignNamespace(n *html.Node) string {
	parentNS := ""
	if n.Parent != nil && n.Parent.Type == html.ElementNode {
		parentNS = n.Parent.Namespace
	}
	if parentNS == n.Namespace {
		return ""
	}
	switch n.Namespace {
	case "svg":
		return NamespaceSVG
	case "math":
		return NamespaceMathML
	case "":
		return NamespaceXHTML
	}
	return ""
}

// isNumericName reports whether an attribute name is made of ASCII digits
// only. Such names come from malformed attribute collections.
func isNumericName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return false
		}
	}
	return true
}
