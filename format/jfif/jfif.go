// Package jfif walks the leading marker segments of a JFIF image.
//
// Only SOI and APP0 are decoded. The first other marker is reported as an unknown segment extending to the next 0xFF
// byte, and the walk ends there.
package jfif

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/nguyengg/xwalk/bounded"
)

// Marker is a 2-byte JPEG marker.
type Marker uint16

const (
	MarkerSOI  Marker = 0xffd8
	MarkerAPP0 Marker = 0xffe0
	MarkerSOS  Marker = 0xffda
	MarkerEOI  Marker = 0xffd9
)

func (m Marker) String() string {
	switch m {
	case MarkerSOI:
		return "SOI"
	case MarkerAPP0:
		return "APP0"
	case MarkerSOS:
		return "SOS"
	case MarkerEOI:
		return "EOI"
	default:
		return fmt.Sprintf("0x%04X", uint16(m))
	}
}

func (m Marker) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ErrInvalidSegmentLength is returned if an APP0 segment declares a length shorter than its own fixed fields.
var ErrInvalidSegmentLength = errors.New("jfif: invalid segment length")

// app0Len is the marker, length, identifier, and thumbnail format fields.
const app0Len = 10

// Segment is one marker segment.
type Segment struct {
	Marker Marker `json:"marker" yaml:"marker"`
	Start  int    `json:"start" yaml:"start"`
	End    int    `json:"end" yaml:"end"`
	// Known is false for every marker other than SOI and APP0.
	Known bool `json:"known" yaml:"known"`

	// Length, Identifier, and ThumbnailFormat are only set for APP0.
	Length          uint16 `json:"length,omitempty" yaml:"length,omitempty"`
	Identifier      []byte `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	ThumbnailFormat uint8  `json:"thumbnailFormat,omitempty" yaml:"thumbnailFormat,omitempty"`

	// Data is the remainder of an APP0 segment, or the bytes following an unknown marker up to the next 0xFF.
	Data []byte `json:"-" yaml:"-"`
}

// Result is the outcome of Walk.
type Result struct {
	Segments []Segment
	// Start and End are the walked window.
	Start, End int
	// Cursor is where the walk stopped.
	Cursor int
}

// Done returns true if the walk reached the end of the window.
func (r *Result) Done() bool {
	return r.Cursor >= r.End
}

// Walk decodes marker segments until the end of the window or the first unknown marker.
//
// A non-nil Result is always returned, containing the segments decoded so far if an error stops the walk.
func Walk(data []byte, optFns ...func(*bounded.Options)) (*Result, error) {
	r := bounded.NewReader(data, optFns...)
	res := &Result{
		Segments: make([]Segment, 0),
		Start:    r.Start(),
		End:      r.End(),
		Cursor:   r.Start(),
	}

	for res.Cursor < res.End {
		if err := r.Check("marker", res.Cursor, 2); err != nil {
			return res, err
		}

		v, _ := r.Uint16(res.Cursor, binary.BigEndian)

		var (
			s   Segment
			err error
		)
		switch m := Marker(v); m {
		case MarkerSOI:
			s = Segment{Marker: m, Start: res.Cursor, End: res.Cursor + 2, Known: true}
		case MarkerAPP0:
			s, err = decodeAPP0(r, res.Cursor)
		default:
			s = decodeUnknown(r, res.Cursor, m)
		}

		if err != nil {
			return res, fmt.Errorf("decode %s at %d (0x%x): %w", Marker(v), res.Cursor, res.Cursor, err)
		}

		res.Segments = append(res.Segments, s)
		res.Cursor = s.End

		if !s.Known {
			break
		}
	}

	return res, nil
}

func decodeAPP0(r *bounded.Reader, start int) (s Segment, err error) {
	b, err := r.Slice("APP0 header", start, app0Len)
	if err != nil {
		return
	}

	s = Segment{
		Marker:          MarkerAPP0,
		Start:           start,
		Known:           true,
		Length:          binary.BigEndian.Uint16(b[2:4]),
		Identifier:      b[4:9:9],
		ThumbnailFormat: b[9],
	}

	// the segment length counts itself but not the marker.
	n := int(s.Length) - (app0Len - 2)
	if n < 0 {
		return s, fmt.Errorf("%w: %d", ErrInvalidSegmentLength, s.Length)
	}

	if s.Data, err = r.Slice("APP0 data", start+app0Len, n); err != nil {
		return
	}

	s.End = start + app0Len + n
	return s, nil
}

func decodeUnknown(r *bounded.Reader, start int, m Marker) Segment {
	end := r.IndexByte(start+2, 0xff)
	data, _ := r.Bytes(start+2, end-start-2)

	return Segment{Marker: m, Start: start, End: end, Data: data}
}
