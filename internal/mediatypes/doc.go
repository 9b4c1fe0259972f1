// Package mediatypes defines the allow-list of video container formats
// the ingestion service accepts, and the MIME types used when serving
// their bytes back out.
package mediatypes
