// Package format re-indents serialized markup.
//
// Format is a pure string-to-string function: block elements go on their
// own lines, indented by nesting depth; inline elements and text stay in
// the flow of their line with whitespace runs collapsed; the content of
// unformatted elements (pre, textarea, script, style) is copied verbatim.
// A block element whose whole content is inline is kept on one line.
//
// Format is idempotent: formatting its own output returns it unchanged.
package format

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Options configures Format.
type Options struct {
	// IndentSize is the number of spaces per nesting level.
	IndentSize int

	// Inline lists elements kept in the text flow.
	Inline []string

	// Unformatted lists elements whose content is copied verbatim.
	Unformatted []string

	// EndWithNewline terminates the output with a newline.
	EndWithNewline bool
}

// DefaultOptions returns the formatting options used for saved snapshots.
func DefaultOptions() Options {
	return Options{
		IndentSize: 2,
		Inline: []string{
			"a", "abbr", "b", "bdi", "bdo", "br", "cite", "code", "data",
			"dfn", "em", "i", "img", "kbd", "mark", "q", "s", "samp",
			"small", "span", "strong", "sub", "sup", "time", "title", "u",
			"var", "wbr",
		},
		Unformatted:    []string{"pre", "textarea", "script", "style"},
		EndWithNewline: true,
	}
}

var preFormatRe = regexp.MustCompile(`\n\s*\(<`)

// PreFormat collapses a line break before "(<" into a single space, so a
// parenthesized inline element stays attached to the preceding text.
func PreFormat(s string) string {
	return preFormatRe.ReplaceAllString(s, " (<")
}

// voidElements never have end tags in HTML serialization.
var voidElements = map[string]bool{
	"area": true, "base": true, "basefont": true, "br": true, "col": true,
	"embed": true, "hr": true, "img": true, "input": true, "isindex": true,
	"keygen": true, "link": true, "meta": true, "param": true,
	"source": true, "track": true, "wbr": true,
}

type tokenKind int

const (
	tokText tokenKind = iota
	tokStart
	tokEnd
	tokSelfClosing
	tokComment
	tokDoctype
)

type token struct {
	kind tokenKind
	name string
	raw  string
}

// Format re-indents markup according to opts.
func Format(markup string, opts Options) string {
	f := &formatter{
		opts:        opts,
		indent:      strings.Repeat(" ", opts.IndentSize),
		inline:      toSet(opts.Inline),
		unformatted: toSet(opts.Unformatted),
	}
	f.run(tokenize(markup))

	out := strings.Join(f.lines, "\n")
	if opts.EndWithNewline && out != "" {
		out += "\n"
	}
	return out
}

func tokenize(markup string) []token {
	var toks []token
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				// Keep whatever the tokenizer could not consume.
				if rest := string(z.Raw()); rest != "" {
					toks = append(toks, token{kind: tokText, raw: rest})
				}
			}
			return toks
		}
		raw := string(z.Raw())
		switch tt {
		case html.TextToken:
			toks = append(toks, token{kind: tokText, raw: raw})
		case html.StartTagToken:
			name, _ := z.TagName()
			kind := tokStart
			if voidElements[string(name)] {
				kind = tokSelfClosing
			}
			toks = append(toks, token{kind: kind, name: string(name), raw: raw})
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			toks = append(toks, token{kind: tokSelfClosing, name: string(name), raw: raw})
		case html.EndTagToken:
			name, _ := z.TagName()
			toks = append(toks, token{kind: tokEnd, name: string(name), raw: raw})
		case html.CommentToken:
			toks = append(toks, token{kind: tokComment, raw: raw})
		case html.DoctypeToken:
			toks = append(toks, token{kind: tokDoctype, raw: raw})
		}
	}
}

type formatter struct {
	opts        Options
	indent      string
	inline      map[string]bool
	unformatted map[string]bool

	lines []string
	line  strings.Builder
	depth int
}

func (f *formatter) run(toks []token) {
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.kind {
		case tokText:
			f.text(t.raw)

		case tokComment, tokDoctype:
			f.flush()
			f.emit(t.raw)

		case tokSelfClosing:
			if f.inline[t.name] {
				f.line.WriteString(t.raw)
				continue
			}
			f.flush()
			f.emit(t.raw)

		case tokStart:
			if f.unformatted[t.name] {
				i = f.verbatim(toks, i)
				continue
			}
			if f.inline[t.name] {
				f.line.WriteString(t.raw)
				continue
			}
			f.flush()
			if end, ok := f.inlineRun(toks, i); ok {
				var inner strings.Builder
				for _, c := range toks[i+1 : end] {
					if c.kind == tokText {
						inner.WriteString(collapse(c.raw))
					} else {
						inner.WriteString(c.raw)
					}
				}
				f.line.WriteString(t.raw)
				f.line.WriteString(strings.TrimSpace(inner.String()))
				f.line.WriteString(toks[end].raw)
				f.flush()
				i = end
				continue
			}
			f.emit(t.raw)
			f.depth++

		case tokEnd:
			if f.inline[t.name] {
				f.line.WriteString(t.raw)
				continue
			}
			f.flush()
			if f.depth > 0 {
				f.depth--
			}
			f.emit(t.raw)
		}
	}
	f.flush()
}

// text appends a text run to the current line with whitespace collapsed.
func (f *formatter) text(raw string) {
	s := collapse(raw)
	if f.line.Len() == 0 {
		s = strings.TrimLeft(s, " ")
	}
	f.line.WriteString(s)
}

// verbatim copies an unformatted element, start to matching end tag, as a
// single line group. It returns the index of the last consumed token.
func (f *formatter) verbatim(toks []token, start int) int {
	name := toks[start].name
	f.flush()
	f.line.WriteString(toks[start].raw)
	nest := 1
	i := start + 1
	for ; i < len(toks); i++ {
		t := toks[i]
		f.line.WriteString(t.raw)
		if t.name != name {
			continue
		}
		switch t.kind {
		case tokStart:
			nest++
		case tokEnd:
			nest--
		}
		if nest == 0 {
			break
		}
	}
	f.flush()
	if i >= len(toks) {
		return len(toks) - 1
	}
	return i
}

// inlineRun reports whether the block element starting at toks[start] has
// only text and inline content, returning the index of its end tag.
func (f *formatter) inlineRun(toks []token, start int) (int, bool) {
	name := toks[start].name
	for i := start + 1; i < len(toks); i++ {
		t := toks[i]
		switch t.kind {
		case tokText:
			continue
		case tokComment, tokDoctype:
			return 0, false
		case tokEnd:
			if t.name == name {
				return i, true
			}
			if !f.inline[t.name] {
				return 0, false
			}
		default:
			if !f.inline[t.name] || f.unformatted[t.name] {
				return 0, false
			}
		}
	}
	return 0, false
}

// flush ends the current line.
func (f *formatter) flush() {
	s := strings.TrimSpace(f.line.String())
	f.line.Reset()
	if s != "" {
		f.emit(s)
	}
}

func (f *formatter) emit(s string) {
	f.lines = append(f.lines, strings.Repeat(f.indent, f.depth)+s)
}

// collapse replaces every run of HTML whitespace with a single space.
func collapse(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				b.WriteByte(' ')
			}
			space = true
		default:
			b.WriteRune(r)
			space = false
		}
	}
	return b.String()
}

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[strings.ToLower(n)] = true
	}
	return m
}
