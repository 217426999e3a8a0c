// Package errors provides structured, actionable error messages for docsave.
//
// Every error carries a code (e.g. "E001") registered with a category, a
// short message and a longer explanation. Call sites add the subject (the
// input file, URL or config path), a suggestion and the underlying cause:
//
//	err := errors.New("E001").
//	    WithSubject("spec/index.html").
//	    Wrap(parseErr)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E001: Input document could not be parsed
//	//
//	//   spec/index.html
//	//
//	//   The input is read with an HTML5 parser; only I/O failures
//	//   are reported here.
//	//
//	//   Cause: unexpected EOF
//
// # Error Categories
//
//   - input: the document handed to a command could not be read
//   - sanitize: the sanitizer could not be configured
//   - render: a serialization was aborted
//   - diff: a diff request could not be built
//   - config: docsave.json is missing or invalid
//   - publish: an artifact could not be stored
//   - cli: bad command-line usage
package errors
