// Package streaming implements the byte-range semantics for serving video
// content: strict Range header parsing and a context-aware chunked copy
// that stops promptly when the client goes away.
//
// Parsing is deliberately strict. An unsatisfiable range (start past end,
// or end past the file) is reported as such so the handler can answer 416;
// a malformed header is a distinct error answered 400. Neither ever falls
// back to a full-body 200, which would break seeking for every client that
// relies on partial content.
package streaming
