package quarantine

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/nguyengg/xwalk/bounded"
)

const (
	entriesHeaderLen     = 0x3c
	entriesPart2LengthAt = 0x28
	entriesPart3LengthAt = 0x2c
)

// EntriesHeader is the fixed-size first part of an Entries file.
type EntriesHeader struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`

	FileID []byte `json:"fileId" yaml:"fileId"`
	// KnownFileID is true if FileID equals EntriesFileID. A mismatch is reported but does not stop the walk.
	KnownFileID bool   `json:"knownFileId" yaml:"knownFileId"`
	UnknownID   []byte `json:"unknownId" yaml:"unknownId"`
	Part2Length uint32 `json:"part2Length" yaml:"part2Length"`
	Part3Length uint32 `json:"part3Length" yaml:"part3Length"`

	// Data is the entire decrypted header.
	Data []byte `json:"-" yaml:"-"`
}

// EntriesResult is the outcome of WalkEntries.
type EntriesResult struct {
	Header *EntriesHeader
	// Parts are the second and third parts, in that order. Each is decrypted with its own RC4 stream.
	Parts []Part
	// Start and End are the walked window.
	Start, End int
	// Cursor is where the walk stopped.
	Cursor int
}

// Done returns true if the walk reached the end of the window.
func (r *EntriesResult) Done() bool {
	return r.Cursor >= r.End
}

// WalkEntries decodes an Entries file: a 0x3c-byte header followed by two parts whose lengths are stored in the
// header.
//
// A non-nil EntriesResult is always returned, containing the parts decoded so far if an error stops the walk.
func WalkEntries(data []byte, optFns ...func(*bounded.Options)) (*EntriesResult, error) {
	r := bounded.NewReader(data, optFns...)
	res := &EntriesResult{
		Parts:  make([]Part, 0, 2),
		Start:  r.Start(),
		End:    r.End(),
		Cursor: r.Start(),
	}

	enc, err := r.Slice("entries header", res.Cursor, entriesHeaderLen)
	if err != nil {
		return res, err
	}

	b := Decrypt(enc)
	h := &EntriesHeader{
		Start:       res.Cursor,
		End:         res.Cursor + entriesHeaderLen,
		FileID:      b[:0x10:0x10],
		UnknownID:   b[0x10:0x18:0x18],
		Part2Length: binary.LittleEndian.Uint32(b[entriesPart2LengthAt:]),
		Part3Length: binary.LittleEndian.Uint32(b[entriesPart3LengthAt:]),
		Data:        b,
	}
	h.KnownFileID = bytes.Equal(h.FileID, EntriesFileID)

	res.Header = h
	res.Cursor = h.End

	for i, length := range []uint32{h.Part2Length, h.Part3Length} {
		n, err := r.CheckLength(fmt.Sprintf("entries part %d", i+2), res.Cursor, uint64(length))
		if err != nil {
			return res, err
		}

		enc, _ = r.Bytes(res.Cursor, n)
		res.Parts = append(res.Parts, Part{Start: res.Cursor, End: res.Cursor + n, Data: Decrypt(enc)})
		res.Cursor += n
	}

	return res, nil
}
