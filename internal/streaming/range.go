package streaming

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors for range parsing.
var (
	// ErrMalformedRange indicates a Range header that does not parse as
	// a single bytes=start-end specification.
	ErrMalformedRange = errors.New("streaming: malformed range header")

	// ErrUnsatisfiableRange indicates a syntactically valid range that
	// falls outside the file: start > end, or end beyond the last byte.
	ErrUnsatisfiableRange = errors.New("streaming: unsatisfiable range")
)

// ByteRange is a validated, inclusive byte interval within a file.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes the range covers.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange formats the Content-Range header value for a 206 response.
func (r ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// UnsatisfiableContentRange formats the Content-Range header value for a
// 416 response.
func UnsatisfiableContentRange(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}

// ParseRange parses a Range header against a file of the given size.
//
//	header == ""        -> (nil, nil): serve the full body
//	"bytes=100-199"     -> explicit interval
//	"bytes=100-"        -> end defaults to size-1
//
// The result always satisfies 0 <= Start <= End < size. Violations return
// ErrUnsatisfiableRange; anything that does not parse, including multi-part
// ranges and suffix ranges, returns ErrMalformedRange.
func ParseRange(header string, size int64) (*ByteRange, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMalformedRange, header)
	}
	if strings.Contains(spec, ",") {
		return nil, fmt.Errorf("%w: multi-part ranges not supported", ErrMalformedRange)
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok || startStr == "" {
		return nil, fmt.Errorf("%w: %q", ErrMalformedRange, header)
	}

	start, err := strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
	if err != nil || start < 0 {
		return nil, fmt.Errorf("%w: bad start in %q", ErrMalformedRange, header)
	}

	end := size - 1
	if endStr = strings.TrimSpace(endStr); endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < 0 {
			return nil, fmt.Errorf("%w: bad end in %q", ErrMalformedRange, header)
		}
	}

	if start > end || end >= size {
		return nil, fmt.Errorf("%w: %d-%d against size %d", ErrUnsatisfiableRange, start, end, size)
	}

	return &ByteRange{Start: start, End: end}, nil
}
