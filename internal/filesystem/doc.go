// Package filesystem provides Stat and Open with bounded retry for stale
// file handle errors, which network filesystems can surface transiently
// under concurrent access. Local filesystems never hit the retry path.
package filesystem
