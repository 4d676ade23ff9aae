package walk

import (
	"github.com/nguyengg/xwalk/bounded"
)

const (
	localFileHeaderLen = 30

	// flagDataDescriptor is bit 3 of the general purpose bit flag.
	flagDataDescriptor = 0x8

	// zip64Sentinel is the value of a 32-bit size field whose true value lives in a wider field elsewhere.
	zip64Sentinel = 0xffffffff
)

// decodeLocalFileHeader decodes the local file header starting at start, including its file data.
//
// Returns the record and the offset of the next record.
func decodeLocalFileHeader(r *bounded.Reader, start int) (Record, int, error) {
	b, err := r.Slice("local file header", start, localFileHeaderLen)
	if err != nil {
		return Record{}, start, err
	}

	buf := readBuf(b[4:])
	h := &LocalFileHeader{
		ReaderVersion:    buf.uint16(),
		Flags:            buf.uint16(),
		Method:           buf.uint16(),
		ModifiedTime:     buf.uint16(),
		ModifiedDate:     buf.uint16(),
		CRC32:            buf.uint32(),
		CompressedSize:   buf.uint32(),
		UncompressedSize: buf.uint32(),
		FileNameLength:   buf.uint16(),
		ExtraFieldLength: buf.uint16(),
	}

	cursor := start + localFileHeaderLen
	if h.Name, err = r.Slice("file name", cursor, int(h.FileNameLength)); err != nil {
		return Record{}, start, err
	}

	cursor += int(h.FileNameLength)
	if h.Extra, err = r.Slice("extra field", cursor, int(h.ExtraFieldLength)); err != nil {
		return Record{}, start, err
	}

	cursor += int(h.ExtraFieldLength)

	h.Zip64Sentinel = h.CompressedSize == zip64Sentinel && h.UncompressedSize == zip64Sentinel
	h.HasTrailingDescriptor = h.Flags&flagDataDescriptor != 0 || h.Zip64Sentinel

	// the sizes in the header cannot be trusted in both the sentinel and the data descriptor cases so the end of
	// the file data is wherever the next signature is.
	var end int
	switch {
	case h.Zip64Sentinel:
		h.SizeUndetermined = true
		end = FindNextSignature(r, cursor)
	case h.Flags&flagDataDescriptor != 0:
		h.SizeUndetermined = true
		end = FindNextSignature(r, cursor)
	default:
		n := h.CompressedSize
		if n == 0 {
			n = h.UncompressedSize
		}

		length, err := r.CheckLength("file data", cursor, uint64(n))
		if err != nil {
			return Record{}, start, err
		}

		end = cursor + length
	}

	return Record{
		Kind:    KindLocalFileHeader,
		Start:   start,
		End:     end,
		Fields:  h,
		Payload: Span{Start: cursor, End: end},
	}, end, nil
}

// impliesZip64Descriptor returns true if the data descriptor following the given local file header is expected to
// have 8-byte size fields.
func impliesZip64Descriptor(h *LocalFileHeader) bool {
	if h.Zip64Sentinel {
		return true
	}

	fields, err := ParseExtraFields(h.Extra)
	if err != nil {
		return false
	}

	for _, f := range fields {
		if f.ID == ExtraIDZip64 {
			return true
		}
	}

	return false
}
