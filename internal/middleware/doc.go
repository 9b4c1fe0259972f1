// Package middleware provides the HTTP middleware chain for the video vault.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics with low-cardinality path labels
//   - Response compression for JSON payloads (video bytes pass through)
package middleware
