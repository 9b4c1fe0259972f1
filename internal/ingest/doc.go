// Package ingest receives uploaded video bytes and commits them to storage
// and the catalog. Validation happens before any disk write, the size ceiling
// is enforced incrementally while bytes arrive, and a failed upload never
// leaves a partial file or a resolvable id behind.
package ingest
