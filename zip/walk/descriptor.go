package walk

import (
	"github.com/nguyengg/xwalk/bounded"
)

const (
	dataDescriptorLen      = 16
	zip64DataDescriptorLen = 24
)

// decodeDataDescriptor decodes the signed data descriptor starting at start.
//
// zip64 is a hint from the preceding local file header that the size fields are 8 bytes wide. Without the hint, the
// width is inferred by checking which of the two possible lengths is immediately followed by another signature,
// preferring the 4-byte sizes if neither or both are.
func decodeDataDescriptor(r *bounded.Reader, start int, zip64 bool) (Record, int, error) {
	if !zip64 && !signatureAt(r, start+dataDescriptorLen) && signatureAt(r, start+zip64DataDescriptorLen) {
		zip64 = true
	}

	n := dataDescriptorLen
	if zip64 {
		n = zip64DataDescriptorLen
	}

	b, err := r.Slice("data descriptor", start, n)
	if err != nil {
		return Record{}, start, err
	}

	buf := readBuf(b[4:])
	h := &DataDescriptor{
		CRC32: buf.uint32(),
		Zip64: zip64,
	}
	if zip64 {
		h.CompressedSize = buf.uint64()
		h.UncompressedSize = buf.uint64()
	} else {
		h.CompressedSize = uint64(buf.uint32())
		h.UncompressedSize = uint64(buf.uint32())
	}

	end := start + n

	return Record{
		Kind:    KindDataDescriptor,
		Start:   start,
		End:     end,
		Fields:  h,
		Payload: Span{Start: end, End: end},
	}, end, nil
}

// signatureAt returns true if the 4 bytes at offset classify to a known Kind.
func signatureAt(r *bounded.Reader, offset int) bool {
	b, err := r.Bytes(offset, 4)
	return err == nil && Classify(b) != KindUnknown
}
