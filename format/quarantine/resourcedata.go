package quarantine

import (
	"bytes"
	"encoding/binary"

	"github.com/nguyengg/xwalk/bounded"
)

const (
	resourceDataHeaderLen = 8 + 4 + 8
	malwareHeaderLen      = 8 + 8 + 4
)

// ResourceDataHeader precedes the binary data of a ResourceData file.
type ResourceDataHeader struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`

	FileID []byte `json:"fileId" yaml:"fileId"`
	// KnownFileID is true if FileID equals ResourceDataFileID. A mismatch is reported but does not stop the walk.
	KnownFileID      bool   `json:"knownFileId" yaml:"knownFileId"`
	BinaryDataLength uint32 `json:"binaryDataLength" yaml:"binaryDataLength"`
	Padding          []byte `json:"padding" yaml:"padding"`
}

// MalwareHeader sits between the binary data and the quarantined file.
type MalwareHeader struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`

	Padding       []byte `json:"padding" yaml:"padding"`
	MalwareLength uint64 `json:"malwareLength" yaml:"malwareLength"`
	Trailing      []byte `json:"trailing" yaml:"trailing"`
}

// ResourceDataResult is the outcome of WalkResourceData.
//
// All byte slices are views into a single decrypted copy of the window.
type ResourceDataResult struct {
	Header        *ResourceDataHeader
	BinaryData    *Part
	MalwareHeader *MalwareHeader
	// Malware is the quarantined file.
	Malware *Part
	// Remainder is whatever follows Malware up to the end of the window. It is only set if the walk completes.
	Remainder *Part
	// Start and End are the walked window.
	Start, End int
	// Cursor is where the walk stopped.
	Cursor int
}

// Done returns true if the walk reached the end of the window.
func (r *ResourceDataResult) Done() bool {
	return r.Cursor >= r.End
}

// WalkResourceData decrypts the window as one RC4 stream then decodes the header, binary data, malware header,
// quarantined file, and remainder in that order.
//
// A non-nil ResourceDataResult is always returned, containing the parts decoded so far if an error stops the walk.
func WalkResourceData(data []byte, optFns ...func(*bounded.Options)) (*ResourceDataResult, error) {
	r := decryptWindow(data, optFns)
	res := &ResourceDataResult{
		Start:  r.Start(),
		End:    r.End(),
		Cursor: r.Start(),
	}

	b, err := r.Slice("resource data header", res.Cursor, resourceDataHeaderLen)
	if err != nil {
		return res, err
	}

	h := &ResourceDataHeader{
		Start:            res.Cursor,
		End:              res.Cursor + resourceDataHeaderLen,
		FileID:           b[:8:8],
		BinaryDataLength: binary.LittleEndian.Uint32(b[8:12]),
		Padding:          b[12:20:20],
	}
	h.KnownFileID = bytes.Equal(h.FileID, ResourceDataFileID)
	res.Header = h
	res.Cursor = h.End

	if res.BinaryData, err = slicePart(r, "binary data", res.Cursor, uint64(h.BinaryDataLength)); err != nil {
		return res, err
	}
	res.Cursor = res.BinaryData.End

	if b, err = r.Slice("malware header", res.Cursor, malwareHeaderLen); err != nil {
		return res, err
	}

	mh := &MalwareHeader{
		Start:         res.Cursor,
		End:           res.Cursor + malwareHeaderLen,
		Padding:       b[:8:8],
		MalwareLength: binary.LittleEndian.Uint64(b[8:16]),
		Trailing:      b[16:20:20],
	}
	res.MalwareHeader = mh
	res.Cursor = mh.End

	if res.Malware, err = slicePart(r, "malware data", res.Cursor, mh.MalwareLength); err != nil {
		return res, err
	}
	res.Cursor = res.Malware.End

	remainder, _ := r.Bytes(res.Cursor, r.End()-res.Cursor)
	res.Remainder = &Part{Start: res.Cursor, End: r.End(), Data: remainder}
	res.Cursor = r.End()

	return res, nil
}

// decryptWindow returns a Reader over a copy of data whose window has been decrypted as a single RC4 stream.
//
// Bytes before the window are left zeroed so that offsets stay the same as those of data.
func decryptWindow(data []byte, optFns []func(*bounded.Options)) *bounded.Reader {
	r := bounded.NewReader(data, optFns...)
	start, end := r.Start(), r.End()

	plain := make([]byte, end)
	newCipher().XORKeyStream(plain[start:end], data[start:end])
	return bounded.NewWindow(plain, start, end-start)
}

func slicePart(r *bounded.Reader, segment string, start int, length uint64) (*Part, error) {
	n, err := r.CheckLength(segment, start, length)
	if err != nil {
		return nil, err
	}

	b, _ := r.Bytes(start, n)
	return &Part{Start: start, End: start + n, Data: b}, nil
}
