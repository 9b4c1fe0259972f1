// Package storage owns the on-disk layout for uploaded videos and their
// thumbnails. All filesystem paths flow through this package: originals live
// under <root>/videos named by generated id, thumbnails under
// <root>/thumbnails named {id}.jpg. No path is ever constructed from a
// client-supplied string, which rules out traversal by construction.
package storage
