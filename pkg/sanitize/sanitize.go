// Package sanitize prepares a cloned document tree for saving: it strips
// tool-only markup and makes sure the encoding declaration and generator
// tag are present and correctly placed.
package sanitize

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/vango-dev/docsave/internal/errors"
	"github.com/vango-dev/docsave/pkg/dom"
	"github.com/vango-dev/docsave/pkg/pubsub"
)

const (
	// DefaultRemove selects tool-transient markup and the tool-only
	// navigation element.
	DefaultRemove = ".removeOnSave, #toc-nav"

	// DefaultSidebarClass is the sidebar-mode marker class.
	DefaultSidebarClass = "toc-sidebar"

	// DefaultGenerator is the generator meta content when none is configured.
	DefaultGenerator = "docsave"

	// MissingCharsetWarning is published when a charset meta is synthesized.
	MissingCharsetWarning = "Document lacks a 'meta charset' declaration. Exporting as utf-8."
)

// ArtifactStripper removes authoring artifacts from a tree in place. It
// must be idempotent.
type ArtifactStripper func(root *html.Node)

// Config configures a Sanitizer.
type Config struct {
	// Remove is a selector group; every matching node is removed.
	// Default: DefaultRemove.
	Remove string

	// SidebarClass is removed from <html> and <body>.
	// Default: DefaultSidebarClass.
	SidebarClass string

	// Generator is the content of the generator meta tag, usually the
	// producing tool and its version. Default: DefaultGenerator.
	Generator string

	// StripArtifacts runs once per pass after the removals.
	// Default: StripAuthoringArtifacts.
	StripArtifacts ArtifactStripper
}

// Sanitizer cleans cloned trees. It holds only immutable configuration
// and is safe for concurrent use.
type Sanitizer struct {
	cfg    Config
	bus    pubsub.Publisher
	remove cascadia.Selector
}

var (
	selViewport  = cascadia.MustCompile(`meta[name="viewport"]`)
	selMeta      = cascadia.MustCompile(`meta`)
	selGenerator = cascadia.MustCompile(`meta[name="generator"]`)
	selArtifacts = cascadia.MustCompile(`.remove, script[data-requiremodule]`)
)

// New creates a Sanitizer publishing diagnostics on bus (which may be nil).
func New(cfg Config, bus pubsub.Publisher) (*Sanitizer, error) {
	if cfg.Remove == "" {
		cfg.Remove = DefaultRemove
	}
	if cfg.SidebarClass == "" {
		cfg.SidebarClass = DefaultSidebarClass
	}
	if cfg.Generator == "" {
		cfg.Generator = DefaultGenerator
	}
	if cfg.StripArtifacts == nil {
		cfg.StripArtifacts = StripAuthoringArtifacts
	}

	sel, err := cascadia.Compile(cfg.Remove)
	if err != nil {
		return nil, errors.New("E010").WithSubject(cfg.Remove).Wrap(err)
	}

	return &Sanitizer{
		cfg:    cfg,
		bus:    pubsub.OrDiscard(bus),
		remove: sel,
	}, nil
}

// Config returns the effective configuration.
func (s *Sanitizer) Config() Config {
	return s.cfg
}

// Sanitize cleans root in place. root is either a document node or its
// <html> element; it must belong to a private clone, never to a tree the
// caller still renders from.
func (s *Sanitizer) Sanitize(root *html.Node) error {
	htmlEl := dom.DocumentElement(root)
	if htmlEl == nil {
		return errors.New("E002")
	}

	for _, n := range s.remove.MatchAll(root) {
		dom.Detach(n)
	}

	dom.RemoveClass(htmlEl, s.cfg.SidebarClass)
	if body := dom.ChildElement(htmlEl, "body"); body != nil {
		dom.RemoveClass(body, s.cfg.SidebarClass)
	}

	s.cfg.StripArtifacts(root)

	head := dom.ChildElement(htmlEl, "head")
	if head == nil {
		head = dom.NewElement("head")
		dom.Prepend(htmlEl, head)
	}

	// The viewport meta controls mobile rendering; keep it early.
	if vp := selViewport.MatchFirst(htmlEl); vp != nil {
		dom.Prepend(head, vp)
	}

	// The encoding declaration must fall within the first 512 bytes.
	charset := findCharset(htmlEl)
	if charset == nil {
		if err := pubsub.Warn(s.bus, MissingCharsetWarning); err != nil {
			return err
		}
		charset = dom.NewElement("meta", "charset", "utf-8")
	}
	dom.Prepend(head, charset)

	if gen := selGenerator.MatchFirst(head); gen != nil {
		dom.SetAttr(gen, "content", s.cfg.Generator)
	} else {
		head.AppendChild(dom.NewElement("meta", "name", "generator", "content", s.cfg.Generator))
	}

	if err := pubsub.BeforeSave(s.bus, root); err != nil {
		return fmt.Errorf("beforesave: %w", err)
	}
	return nil
}

// findCharset returns the first meta element declaring utf-8, either with
// a charset attribute or with a content attribute containing charset=utf-8.
func findCharset(root *html.Node) *html.Node {
	for _, m := range selMeta.MatchAll(root) {
		if v, ok := dom.GetAttr(m, "charset"); ok && strings.EqualFold(strings.TrimSpace(v), "utf-8") {
			return m
		}
		if v, ok := dom.GetAttr(m, "content"); ok && strings.Contains(strings.ToLower(v), "charset=utf-8") {
			return m
		}
	}
	return nil
}

// StripAuthoringArtifacts is the default ArtifactStripper. It removes
// elements marked with the "remove" class and module-loader scripts.
func StripAuthoringArtifacts(root *html.Node) {
	for _, n := range selArtifacts.MatchAll(root) {
		dom.Detach(n)
	}
}
