package walk

import "github.com/nguyengg/xwalk/bounded"

const (
	eocdLen             = 22
	zip64EOCDLen        = 56
	zip64EOCDLocatorLen = 20

	// zip64EOCDLeadLen is the number of bytes not counted by [Zip64EndOfCentralDirectory.RecordSize].
	zip64EOCDLeadLen = 12
)

// decodeEndOfCentralDirectory decodes the end of central directory record starting at start.
//
// Returns the record and the offset of the next record.
func decodeEndOfCentralDirectory(r *bounded.Reader, start int) (Record, int, error) {
	b, err := r.Slice("end of central directory", start, eocdLen)
	if err != nil {
		return Record{}, start, err
	}

	buf := readBuf(b[4:])
	h := &EndOfCentralDirectory{
		DiskNumber:    buf.uint16(),
		CDDiskOffset:  buf.uint16(),
		CDCountOnDisk: buf.uint16(),
		CDCount:       buf.uint16(),
		CDSize:        buf.uint32(),
		CDOffset:      buf.uint32(),
		CommentLength: buf.uint16(),
	}

	cursor := start + eocdLen
	if h.Comment, err = r.Slice("comment", cursor, int(h.CommentLength)); err != nil {
		return Record{}, start, err
	}

	end := cursor + int(h.CommentLength)

	return Record{
		Kind:    KindEndOfCentralDirectory,
		Start:   start,
		End:     end,
		Fields:  h,
		Payload: Span{Start: cursor, End: end},
	}, end, nil
}

// decodeZip64EndOfCentralDirectory decodes the ZIP64 end of central directory record starting at start.
//
// The length of the trailing extensible data ("comment") is derived from RecordSize rather than stored.
func decodeZip64EndOfCentralDirectory(r *bounded.Reader, start int) (Record, int, error) {
	b, err := r.Slice("zip64 end of central directory", start, zip64EOCDLen)
	if err != nil {
		return Record{}, start, err
	}

	buf := readBuf(b[4:])
	h := &Zip64EndOfCentralDirectory{
		RecordSize:     buf.uint64(),
		CreatorVersion: buf.uint16(),
		ReaderVersion:  buf.uint16(),
		DiskNumber:     buf.uint32(),
		CDDiskOffset:   buf.uint32(),
		CDCountOnDisk:  buf.uint64(),
		CDCount:        buf.uint64(),
		CDSize:         buf.uint64(),
		CDOffset:       buf.uint64(),
	}

	// RecordSize smaller than the fixed layout is malformed but there's nothing trailing to consume then.
	cursor := start + zip64EOCDLen
	var n uint64
	if h.RecordSize > zip64EOCDLen-zip64EOCDLeadLen {
		n = h.RecordSize - (zip64EOCDLen - zip64EOCDLeadLen)
	}

	if h.CommentLength, err = r.CheckLength("zip64 extensible data", cursor, n); err != nil {
		return Record{}, start, err
	}

	h.Comment, _ = r.Bytes(cursor, h.CommentLength)
	end := cursor + h.CommentLength

	return Record{
		Kind:    KindZip64EndOfCentralDirectory,
		Start:   start,
		End:     end,
		Fields:  h,
		Payload: Span{Start: cursor, End: end},
	}, end, nil
}

// decodeZip64EndOfCentralDirectoryLocator decodes the fixed-size ZIP64 end of central directory locator.
func decodeZip64EndOfCentralDirectoryLocator(r *bounded.Reader, start int) (Record, int, error) {
	b, err := r.Slice("zip64 end of central directory locator", start, zip64EOCDLocatorLen)
	if err != nil {
		return Record{}, start, err
	}

	buf := readBuf(b[4:])
	h := &Zip64EndOfCentralDirectoryLocator{
		EOCDDisk:   buf.uint32(),
		EOCDOffset: buf.uint64(),
		TotalDisks: buf.uint32(),
	}

	end := start + zip64EOCDLocatorLen

	return Record{
		Kind:    KindZip64EndOfCentralDirectoryLocator,
		Start:   start,
		End:     end,
		Fields:  h,
		Payload: Span{Start: end, End: end},
	}, end, nil
}
