// Package png walks the chunks of a PNG image without decoding them.
//
// Like walk for ZIP containers, the walk is bounds-checked and never reads past the declared end of the window. CRCs
// are reported as stored; they are not validated.
package png

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/nguyengg/xwalk/bounded"
)

// Signature is the 8-byte signature that starts every PNG image.
var Signature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// ErrInvalidSignature is returned if the window does not start with Signature.
var ErrInvalidSignature = errors.New("png: invalid signature")

// chunkOverhead is the length, type, and CRC fields of each chunk.
const chunkOverhead = 12

// Chunk is a single PNG chunk.
type Chunk struct {
	Start  int    `json:"start" yaml:"start"`
	End    int    `json:"end" yaml:"end"`
	Length uint32 `json:"length" yaml:"length"`
	Type   string `json:"type" yaml:"type"`
	CRC    uint32 `json:"crc" yaml:"crc"`

	// Data is a view into the walked buffer.
	Data []byte `json:"-" yaml:"-"`
}

// Critical returns true if the chunk type's first letter is uppercase.
func (c Chunk) Critical() bool {
	return len(c.Type) == 4 && c.Type[0]&0x20 == 0
}

// Result is the outcome of Walk.
type Result struct {
	// Signature is the first 8 bytes of the window, or nil for WalkChunks.
	Signature []byte
	Chunks    []Chunk
	// Start and End are the walked window.
	Start, End int
	// Cursor is where the walk stopped: right after IEND, at End, or at the start of the chunk that failed.
	Cursor int
}

// Done returns true if the walk reached the end of the window.
func (r *Result) Done() bool {
	return r.Cursor >= r.End
}

// Trailing returns the bytes after the IEND chunk if the walk stopped there.
//
// Returns nil if there are none or if the walk never saw IEND.
func (r *Result) Trailing(data []byte) []byte {
	if n := len(r.Chunks); n == 0 || r.Chunks[n-1].Type != "IEND" || r.Cursor >= r.End {
		return nil
	}

	return data[r.Cursor:r.End:r.End]
}

// Walk checks the PNG signature at the start of the window then decodes the chunks that follow up to and including
// IEND.
//
// A non-nil Result is always returned, containing the chunks decoded so far if an error stops the walk.
func Walk(data []byte, optFns ...func(*bounded.Options)) (*Result, error) {
	r := bounded.NewReader(data, optFns...)
	res := newResult(r)

	sig, err := r.Slice("png signature", res.Cursor, len(Signature))
	if err != nil {
		return res, err
	}

	res.Signature = sig
	if !bytes.Equal(sig, Signature) {
		return res, fmt.Errorf("%w: got % x", ErrInvalidSignature, sig)
	}

	res.Cursor += len(Signature)
	return res, walkChunks(r, res)
}

// WalkChunks is a variant of Walk for windows that start directly at a chunk, such as those carved out of another
// file.
func WalkChunks(data []byte, optFns ...func(*bounded.Options)) (*Result, error) {
	r := bounded.NewReader(data, optFns...)
	res := newResult(r)
	return res, walkChunks(r, res)
}

func newResult(r *bounded.Reader) *Result {
	return &Result{
		Chunks: make([]Chunk, 0),
		Start:  r.Start(),
		End:    r.End(),
		Cursor: r.Start(),
	}
}

func walkChunks(r *bounded.Reader, res *Result) error {
	for res.Cursor < res.End {
		c, err := decodeChunk(r, res.Cursor)
		if err != nil {
			return fmt.Errorf("decode chunk at %d (0x%x): %w", res.Cursor, res.Cursor, err)
		}

		res.Chunks = append(res.Chunks, c)
		res.Cursor = c.End

		if c.Type == "IEND" {
			break
		}
	}

	return nil
}

func decodeChunk(r *bounded.Reader, start int) (c Chunk, err error) {
	if err = r.Check("chunk header", start, 8); err != nil {
		return
	}

	c.Start = start
	c.Length, _ = r.Uint32(start, binary.BigEndian)

	typ, _ := r.Bytes(start+4, 4)
	c.Type = string(typ)

	n, err := r.CheckLength(fmt.Sprintf("%s chunk data", c.Type), start+8, uint64(c.Length))
	if err != nil {
		return
	}

	c.Data, _ = r.Bytes(start+8, n)

	crcAt := start + 8 + n
	if err = r.Check(fmt.Sprintf("%s chunk crc", c.Type), crcAt, 4); err != nil {
		return
	}

	c.CRC, _ = r.Uint32(crcAt, binary.BigEndian)
	c.End = start + chunkOverhead + n
	return c, nil
}
