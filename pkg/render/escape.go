package render

import "strings"

// EscapeText escapes text for inclusion in element content. It converts
// the markup-significant characters to entity references. Every other
// byte, including invalid UTF-8, is copied unchanged.
func EscapeText(s string) string {
	if !strings.ContainsAny(s, `&<>"`) {
		return s
	}

	var buf strings.Builder
	buf.Grow(len(s) + 16)

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		default:
			buf.WriteByte(c)
		}
	}

	return buf.String()
}

// EscapeAttr escapes text for inclusion in a double-quoted attribute
// value. In addition to the text entities it escapes whitespace control
// characters, which XML attribute-value normalization would otherwise turn
// into spaces.
func EscapeAttr(s string) string {
	if !strings.ContainsAny(s, "&<>\"\n\r\t") {
		return s
	}

	var buf strings.Builder
	buf.Grow(len(s) + 16)

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\n':
			buf.WriteString("&#10;")
		case '\r':
			buf.WriteString("&#13;")
		case '\t':
			buf.WriteString("&#9;")
		default:
			buf.WriteByte(c)
		}
	}

	return buf.String()
}
