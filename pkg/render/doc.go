// Package render serializes HTML document trees into saved snapshots.
//
// Two dialects are produced from the same pipeline:
//
//   - ToHTML writes loose HTML5. The inner content of the root element is
//     written by the tree library's native serializer (html.Render).
//   - ToXML writes strict XHTML5 with an explicit recursive walk: every
//     element is closed, the self-closing set is written as "<tag />",
//     text is escaped except directly inside style and script.
//
// # Pipeline
//
// Each call publishes a save event, deep-clones the input, runs the
// sanitizer on the clone (which ends with the beforesave broadcast), builds
// the markup, and re-indents it with the format package:
//
//	ser, err := render.NewSerializer(render.Config{Bus: hub})
//	xhtml, err := ser.ToXML(ctx, doc)
//
// The caller's tree is never modified.
//
// # Errors
//
// Diagnostics (missing charset, unhandled node types) are published as
// warn events and do not stop the save. An error returned by any bus
// listener aborts the call; no partial output is returned.
package render
