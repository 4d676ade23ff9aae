package walk

import (
	"github.com/nguyengg/xwalk/bounded"
)

const centralDirectoryHeaderLen = 46

// decodeCentralDirectoryHeader decodes the central directory file header starting at start.
//
// Returns the record and the offset of the next record.
func decodeCentralDirectoryHeader(r *bounded.Reader, start int) (Record, int, error) {
	b, err := r.Slice("central directory header", start, centralDirectoryHeaderLen)
	if err != nil {
		return Record{}, start, err
	}

	buf := readBuf(b[4:])
	h := &CentralDirectoryHeader{
		CreatorVersion:    buf.uint16(),
		ReaderVersion:     buf.uint16(),
		Flags:             buf.uint16(),
		Method:            buf.uint16(),
		ModifiedTime:      buf.uint16(),
		ModifiedDate:      buf.uint16(),
		CRC32:             buf.uint32(),
		CompressedSize:    buf.uint32(),
		UncompressedSize:  buf.uint32(),
		FileNameLength:    buf.uint16(),
		ExtraFieldLength:  buf.uint16(),
		FileCommentLength: buf.uint16(),
		DiskNumber:        buf.uint16(),
		InternalAttrs:     buf.uint16(),
		ExternalAttrs:     buf.uint32(),
		Offset:            buf.uint32(),
	}

	// name, extra, and comment are laid out in that order.
	cursor := start + centralDirectoryHeaderLen
	if h.Name, err = r.Slice("file name", cursor, int(h.FileNameLength)); err != nil {
		return Record{}, start, err
	}

	cursor += int(h.FileNameLength)
	if h.Extra, err = r.Slice("extra field", cursor, int(h.ExtraFieldLength)); err != nil {
		return Record{}, start, err
	}

	cursor += int(h.ExtraFieldLength)
	if h.Comment, err = r.Slice("file comment", cursor, int(h.FileCommentLength)); err != nil {
		return Record{}, start, err
	}

	end := cursor + int(h.FileCommentLength)

	return Record{
		Kind:    KindCentralDirectoryHeader,
		Start:   start,
		End:     end,
		Fields:  h,
		Payload: Span{Start: cursor, End: end},
	}, end, nil
}
