// Package handlers implements the HTTP API: video upload, listing, deletion,
// range-aware content streaming, thumbnail delivery, and the health and
// version endpoints.
package handlers
