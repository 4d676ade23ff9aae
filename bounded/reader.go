// Package bounded provides bounds-checked field extraction over an in-memory byte buffer.
//
// A Reader never reads past its declared end, which may be less than the physical length of the buffer when the
// caller only wants a sub-range to be parsed. All reads are by absolute offset into the buffer so that decoders can
// report offsets that are meaningful to the caller.
package bounded

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrInsufficientData is the sentinel error matched by every InsufficientDataError via errors.Is.
var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataError is returned if a read needs more bytes than remain before the declared end.
type InsufficientDataError struct {
	// Segment names the field or region being read, e.g. "local file header" or "file name".
	//
	// May be empty if the read was not attributed to any segment.
	Segment string
	// At is the absolute offset of the read.
	At int
	// Needed is the number of bytes the read requires.
	Needed int
	// Available is the number of bytes between At and the declared end, or 0 if At is already past the end.
	Available int
}

func (e *InsufficientDataError) Error() string {
	if e.Segment == "" {
		return fmt.Sprintf("insufficient data at %d (0x%x): need %d bytes, have %d", e.At, e.At, e.Needed, e.Available)
	}

	return fmt.Sprintf("insufficient data for %s at %d (0x%x): need %d bytes, have %d", e.Segment, e.At, e.At, e.Needed, e.Available)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// Reader wraps a byte buffer and a logical [start, end) window.
//
// The zero value is an empty reader. Reader does not copy or modify the buffer; slices returned by Bytes alias the
// buffer and must not be modified by the caller.
type Reader struct {
	data       []byte
	start, end int
}

// New returns a Reader over the entire data.
func New(data []byte) *Reader {
	return &Reader{data: data, start: 0, end: len(data)}
}

// NewWindow returns a Reader whose window starts at offset and is at most maxLength bytes long.
//
// A non-positive maxLength means "until the end of data". offset is clamped to [0, len(data)] so that the returned
// reader is always valid; the declared end is min(len(data), offset+maxLength).
func NewWindow(data []byte, offset, maxLength int) *Reader {
	n := len(data)
	offset = min(max(offset, 0), n)

	end := n
	if maxLength > 0 && maxLength < n-offset {
		end = offset + maxLength
	}

	return &Reader{data: data, start: offset, end: end}
}

// Start returns the offset where the window starts.
func (r *Reader) Start() int {
	return r.start
}

// End returns the declared end of the window.
func (r *Reader) End() int {
	return r.end
}

// Remaining returns the number of bytes between offset and the declared end, or 0 if offset is out of range.
func (r *Reader) Remaining(offset int) int {
	if offset < r.start || offset >= r.end {
		return 0
	}

	return r.end - offset
}

// Check returns an InsufficientDataError if [offset, offset+length) does not fit in the window.
func (r *Reader) Check(segment string, offset, length int) error {
	if offset < r.start || length < 0 || offset > r.end || length > r.end-offset {
		return &InsufficientDataError{
			Segment:   segment,
			At:        offset,
			Needed:    length,
			Available: r.Remaining(offset),
		}
	}

	return nil
}

// Bytes returns the length bytes starting at offset.
//
// The returned slice is a view into the underlying buffer, not a copy. Its capacity is capped at length so that
// appending to it never overwrites the buffer.
func (r *Reader) Bytes(offset, length int) ([]byte, error) {
	if err := r.Check("", offset, length); err != nil {
		return nil, err
	}

	return r.data[offset : offset+length : offset+length], nil
}

// Slice is a variant of Bytes that attributes any error to the named segment.
func (r *Reader) Slice(segment string, offset, length int) ([]byte, error) {
	if err := r.Check(segment, offset, length); err != nil {
		return nil, err
	}

	return r.data[offset : offset+length : offset+length], nil
}

// Uint8 reads 1 byte at offset.
func (r *Reader) Uint8(offset int) (uint8, error) {
	if err := r.Check("", offset, 1); err != nil {
		return 0, err
	}

	return r.data[offset], nil
}

// Uint16 reads 2 bytes at offset with the given byte order.
func (r *Reader) Uint16(offset int, order binary.ByteOrder) (uint16, error) {
	if err := r.Check("", offset, 2); err != nil {
		return 0, err
	}

	return order.Uint16(r.data[offset:]), nil
}

// Uint32 reads 4 bytes at offset with the given byte order.
func (r *Reader) Uint32(offset int, order binary.ByteOrder) (uint32, error) {
	if err := r.Check("", offset, 4); err != nil {
		return 0, err
	}

	return order.Uint32(r.data[offset:]), nil
}

// Uint64 reads 8 bytes at offset with the given byte order.
func (r *Reader) Uint64(offset int, order binary.ByteOrder) (uint64, error) {
	if err := r.Check("", offset, 8); err != nil {
		return 0, err
	}

	return order.Uint64(r.data[offset:]), nil
}

// Index returns the first offset i >= start at which sep occurs entirely within the window.
//
// Returns End if there is no such offset or if start is at or past the end. Index never reads past the declared end
// even if the physical buffer continues.
func (r *Reader) Index(start int, sep []byte) int {
	start = max(start, r.start)
	if start >= r.end || len(sep) == 0 {
		return r.end
	}

	if i := bytes.Index(r.data[start:r.end], sep); i != -1 {
		return start + i
	}

	return r.end
}

// IndexByte is a variant of Index for a single byte.
func (r *Reader) IndexByte(start int, c byte) int {
	start = max(start, r.start)
	if start >= r.end {
		return r.end
	}

	if i := bytes.IndexByte(r.data[start:r.end], c); i != -1 {
		return start + i
	}

	return r.end
}
