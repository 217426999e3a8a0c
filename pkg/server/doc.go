// Package server exposes snapshot exports over HTTP.
//
// Documents are posted as the request body; ?url= gives the address the
// document is published at. Each request parses and serializes its own
// tree, so requests run concurrently.
//
//	POST /v1/html        loose HTML5 snapshot
//	POST /v1/xhtml       strict XHTML5 snapshot
//	POST /v1/diff        diff form page (409 when diffing is not configured)
//	POST /v1/artifacts   save menu as JSON
//	POST /v1/menu        save menu as HTML links
//	POST /v1/publish     store every artifact (with WithStore)
//	GET  /v1/epub?url=   redirect to the EPUB converter
//	GET  /v1/events      WebSocket stream of warn/save/beforesave events
//	GET  /metrics        Prometheus (with WithMetrics)
//	GET  /healthz
//
// Failures are answered with the coded error as JSON:
//
//	{"code":"E030","category":"diff","message":"Diff tool not configured",...}
//
// Event stream connections are hijacked, so Shutdown closes them itself
// before stopping the HTTP server.
package server
