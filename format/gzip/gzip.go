// Package gzip walks the header, compressed block, and trailer of a single gzip member without inflating it.
package gzip

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/nguyengg/xwalk/bounded"
)

// ErrInvalidSignature is returned if the window does not start with the gzip magic number.
var ErrInvalidSignature = errors.New("gzip: invalid magic number")

// Header flags.
const (
	FlagText    uint8 = 0x01
	FlagHCRC    uint8 = 0x02
	FlagExtra   uint8 = 0x04
	FlagName    uint8 = 0x08
	FlagComment uint8 = 0x10
)

const (
	headerLen  = 10
	trailerLen = 8
)

// Header is the member header including its optional fields.
type Header struct {
	Start      int    `json:"start" yaml:"start"`
	End        int    `json:"end" yaml:"end"`
	Method     uint8  `json:"method" yaml:"method"`
	Flags      uint8  `json:"flags" yaml:"flags"`
	ModTime    uint32 `json:"modTime" yaml:"modTime"`
	ExtraFlags uint8  `json:"extraFlags" yaml:"extraFlags"`
	OS         uint8  `json:"os" yaml:"os"`

	// Extra, Name, and Comment are views into the walked buffer, nil if the corresponding flag is unset.
	Extra   []byte `json:"extra,omitempty" yaml:"extra,omitempty"`
	Name    []byte `json:"name,omitempty" yaml:"name,omitempty"`
	Comment []byte `json:"comment,omitempty" yaml:"comment,omitempty"`

	// HeaderCRC16 is present only if FlagHCRC is set.
	HeaderCRC16 *uint16 `json:"headerCrc16,omitempty" yaml:"headerCrc16,omitempty"`
}

// Modified returns ModTime as a UTC time, or the zero time if ModTime is 0.
func (h *Header) Modified() time.Time {
	if h.ModTime == 0 {
		return time.Time{}
	}

	return time.Unix(int64(h.ModTime), 0).UTC()
}

// Trailer is the last 8 bytes of the member.
type Trailer struct {
	Start int    `json:"start" yaml:"start"`
	CRC32 uint32 `json:"crc32" yaml:"crc32"`
	// ISize is the uncompressed size modulo 2^32.
	ISize uint32 `json:"isize" yaml:"isize"`
}

// Result is the outcome of Walk.
type Result struct {
	// Header is nil if the fixed header could not be decoded.
	Header *Header
	// Compressed is the compressed block as a view into the walked buffer, between the header and the trailer.
	Compressed      []byte
	CompressedStart int
	// Trailer is nil if the walk stopped before it.
	Trailer *Trailer
	// Start and End are the walked window.
	Start, End int
	// Cursor is End if the walk completed, or where the failed segment starts.
	Cursor int
}

// Done returns true if the walk reached the end of the window.
func (r *Result) Done() bool {
	return r.Cursor >= r.End
}

// Walk decodes the gzip member in data.
//
// The trailer is always the last 8 bytes of the window, so a window that includes anything after the member must be
// limited with bounded.WithMaxLength to end exactly where the member does.
//
// A non-nil Result is always returned, containing the segments decoded so far if an error stops the walk.
func Walk(data []byte, optFns ...func(*bounded.Options)) (*Result, error) {
	r := bounded.NewReader(data, optFns...)
	res := &Result{Start: r.Start(), End: r.End(), Cursor: r.Start()}

	h, err := decodeHeader(r, res.Cursor)
	if err != nil {
		return res, err
	}

	res.Header = h
	res.Cursor = h.End

	if err = r.Check("trailer", res.Cursor, trailerLen); err != nil {
		return res, err
	}

	res.CompressedStart = h.End
	res.Compressed, _ = r.Bytes(h.End, r.End()-trailerLen-h.End)

	t := &Trailer{Start: r.End() - trailerLen}
	t.CRC32, _ = r.Uint32(t.Start, binary.LittleEndian)
	t.ISize, _ = r.Uint32(t.Start+4, binary.LittleEndian)
	res.Trailer = t
	res.Cursor = r.End()

	return res, nil
}

func decodeHeader(r *bounded.Reader, start int) (*Header, error) {
	b, err := r.Slice("gzip header", start, headerLen)
	if err != nil {
		return nil, err
	}

	if b[0] != 0x1f || b[1] != 0x8b {
		return nil, fmt.Errorf("%w: got % x", ErrInvalidSignature, b[:2])
	}

	h := &Header{
		Start:      start,
		Method:     b[2],
		Flags:      b[3],
		ModTime:    binary.LittleEndian.Uint32(b[4:8]),
		ExtraFlags: b[8],
		OS:         b[9],
	}

	cursor := start + headerLen

	if h.Flags&FlagExtra != 0 {
		n, err := r.Uint16(cursor, binary.LittleEndian)
		if err != nil {
			return nil, fmt.Errorf("decode extra field length: %w", err)
		}

		if h.Extra, err = r.Slice("extra field", cursor+2, int(n)); err != nil {
			return nil, err
		}

		cursor += 2 + int(n)
	}

	if h.Flags&FlagName != 0 {
		if h.Name, err = zeroTerminated(r, "file name", cursor); err != nil {
			return nil, err
		}

		cursor += len(h.Name) + 1
	}

	if h.Flags&FlagComment != 0 {
		if h.Comment, err = zeroTerminated(r, "comment", cursor); err != nil {
			return nil, err
		}

		cursor += len(h.Comment) + 1
	}

	if h.Flags&FlagHCRC != 0 {
		v, err := r.Uint16(cursor, binary.LittleEndian)
		if err != nil {
			return nil, fmt.Errorf("decode header crc16: %w", err)
		}

		h.HeaderCRC16 = &v
		cursor += 2
	}

	h.End = cursor
	return h, nil
}

// zeroTerminated returns the bytes from offset up to but excluding the next 0x00.
//
// A missing terminator is reported as insufficient data for one more byte than remains.
func zeroTerminated(r *bounded.Reader, segment string, offset int) ([]byte, error) {
	i := r.IndexByte(offset, 0)
	if i >= r.End() {
		n := r.Remaining(offset)
		return nil, &bounded.InsufficientDataError{Segment: segment, At: offset, Needed: n + 1, Available: n}
	}

	return r.Slice(segment, offset, i-offset)
}
