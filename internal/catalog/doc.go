// Package catalog is the authoritative, concurrency-safe index of video
// assets. All mutation of asset state goes through the Catalog; every other
// component observes assets through its snapshot reads.
//
// The working set is held in memory under a RW mutex, in insertion order.
// Every mutation is mirrored to a SQLite index file so the catalog can be
// rebuilt after a restart by reconciling the index against what is actually
// on disk. Listing never rescans the filesystem.
package catalog
