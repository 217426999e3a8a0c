// Package dom provides helpers around golang.org/x/net/html trees: parsing,
// deep cloning, doctype lookup and small attribute/class manipulations used
// by the sanitizer and the emitters.
package dom

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse parses a complete HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	return html.Parse(r)
}

// ParseString parses a complete HTML document held in a string.
func ParseString(s string) (*html.Node, error) {
	return html.Parse(strings.NewReader(s))
}

// Clone returns a deep copy of n. The copy is detached: it has no parent
// and no siblings, and shares no attribute slices with the original.
func Clone(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// DocumentElement returns the <html> element of a document. If n is
// itself an element it is returned unchanged.
func DocumentElement(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

// Doctype describes the document type declaration of a document.
type Doctype struct {
	Name     string
	PublicID string
	SystemID string
}

// FindDoctype returns the doctype of the document rooted at n, if any.
func FindDoctype(n *html.Node) (Doctype, bool) {
	if n == nil || n.Type != html.DocumentNode {
		return Doctype{}, false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.DoctypeNode {
			continue
		}
		dt := Doctype{Name: c.Data}
		for _, a := range c.Attr {
			switch a.Key {
			case "public":
				dt.PublicID = a.Val
			case "system":
				dt.SystemID = a.Val
			}
		}
		return dt, true
	}
	return Doctype{}, false
}

// AttrName returns the qualified name of an attribute, prefixing the
// namespace (xlink, xml, xmlns) when there is one.
func AttrName(a html.Attribute) string {
	if a.Namespace == "" {
		return a.Key
	}
	return a.Namespace + ":" + a.Key
}

// GetAttr returns the value of the named attribute and whether it exists.
func GetAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if AttrName(a) == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets (or adds) the attribute key=val on n.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if AttrName(a) == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr removes the named attribute from n if present.
func RemoveAttr(n *html.Node, key string) {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if AttrName(a) != key {
			attrs = append(attrs, a)
		}
	}
	n.Attr = attrs
}

// RemoveClass removes a class token from n's class attribute. The
// attribute itself is dropped once no tokens remain.
func RemoveClass(n *html.Node, class string) {
	val, ok := GetAttr(n, "class")
	if !ok {
		return
	}
	fields := strings.Fields(val)
	kept := fields[:0]
	for _, f := range fields {
		if f != class {
			kept = append(kept, f)
		}
	}
	if len(kept) == len(fields) {
		return
	}
	if len(kept) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// Detach removes n from its parent, if it has one.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Prepend moves child to be the first child of parent.
func Prepend(parent, child *html.Node) {
	if parent.FirstChild == child {
		return
	}
	Detach(child)
	if parent.FirstChild == nil {
		parent.AppendChild(child)
		return
	}
	parent.InsertBefore(child, parent.FirstChild)
}

// NewElement creates a detached HTML element with the given attributes.
// Attributes are passed as alternating key/value strings.
func NewElement(tag string, kv ...string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(kv); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return n
}

// ChildElement returns the first child element of n with the given tag.
func ChildElement(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
	}
	return nil
}
