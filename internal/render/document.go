// Package render presents walk results as text, JSON, or YAML.
package render

import (
	"fmt"
	"iter"
	"time"
	"unicode/utf8"

	"github.com/nguyengg/xwalk/format/gzip"
	"github.com/nguyengg/xwalk/format/jfif"
	"github.com/nguyengg/xwalk/format/png"
	"github.com/nguyengg/xwalk/format/quarantine"
	"github.com/nguyengg/xwalk/zip/walk"
)

// Document is the format-agnostic presentation of one walk.
type Document struct {
	File      string   `json:"file" yaml:"file"`
	Format    string   `json:"format" yaml:"format"`
	Size      int      `json:"size" yaml:"size"`
	Unwrapped []string `json:"unwrapped,omitempty" yaml:"unwrapped,omitempty"`
	Start     int      `json:"start" yaml:"start"`
	End       int      `json:"end" yaml:"end"`
	Cursor    int      `json:"cursor" yaml:"cursor"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
	Records   []Entry  `json:"records" yaml:"records"`
}

// Entry is one record of a Document.
type Entry struct {
	Kind    string     `json:"kind" yaml:"kind"`
	Start   int        `json:"start" yaml:"start"`
	End     int        `json:"end" yaml:"end"`
	Payload *walk.Span `json:"payload,omitempty" yaml:"payload,omitempty"`
	Fields  Fields     `json:"fields,omitempty" yaml:"fields,omitempty"`

	preview []byte
}

// Field is a named value. Fields keep their insertion order in text output.
type Field struct {
	Name  string
	Value any
}

// Fields is an ordered list of Field, marshalled as an object.
type Fields []Field

func (d *Document) setError(err error) {
	if err != nil {
		d.Error = err.Error()
	}
}

// Zip creates a Document from the result of walk.Walk.
func Zip(name string, data []byte, res *walk.Result, err error) *Document {
	d := &Document{
		File:    name,
		Format:  "zip",
		Size:    len(data),
		Start:   res.Start,
		End:     res.End,
		Cursor:  res.Cursor,
		Records: make([]Entry, 0, len(res.Records)),
	}
	d.setError(err)

	for _, rec := range res.Records {
		payload := rec.Payload
		d.Records = append(d.Records, Entry{
			Kind:    rec.Kind.String(),
			Start:   rec.Start,
			End:     rec.End,
			Payload: &payload,
			Fields:  zipFields(rec.Fields),
			preview: rec.PayloadBytes(),
		})
	}

	return d
}

func zipFields(f walk.Fields) Fields {
	switch h := f.(type) {
	case *walk.LocalFileHeader:
		fields := Fields{
			{"name", text(h.Name)},
			{"readerVersion", h.ReaderVersion},
			{"flags", hex16(h.Flags)},
			{"method", h.Method},
			{"modified", h.Modified().Format(time.RFC3339)},
			{"crc32", hex32(h.CRC32)},
			{"compressedSize", h.CompressedSize},
			{"uncompressedSize", h.UncompressedSize},
			{"extraFieldLength", h.ExtraFieldLength},
			{"zip64Sentinel", h.Zip64Sentinel},
			{"hasTrailingDescriptor", h.HasTrailingDescriptor},
			{"sizeUndetermined", h.SizeUndetermined},
		}
		return append(fields, extraFields(h.Extra, h.CompressedSize, h.UncompressedSize, 0)...)
	case *walk.CentralDirectoryHeader:
		fields := Fields{
			{"name", text(h.Name)},
			{"creatorVersion", h.CreatorVersion},
			{"readerVersion", h.ReaderVersion},
			{"flags", hex16(h.Flags)},
			{"method", h.Method},
			{"modified", h.Modified().Format(time.RFC3339)},
			{"crc32", hex32(h.CRC32)},
			{"compressedSize", h.CompressedSize},
			{"uncompressedSize", h.UncompressedSize},
			{"externalAttrs", hex32(h.ExternalAttrs)},
			{"offset", h.Offset},
			{"comment", text(h.Comment)},
		}
		return append(fields, extraFields(h.Extra, h.CompressedSize, h.UncompressedSize, h.Offset)...)
	case *walk.EndOfCentralDirectory:
		return Fields{
			{"diskNumber", h.DiskNumber},
			{"cdCountOnDisk", h.CDCountOnDisk},
			{"cdCount", h.CDCount},
			{"cdSize", h.CDSize},
			{"cdOffset", h.CDOffset},
			{"comment", text(h.Comment)},
		}
	case *walk.Zip64EndOfCentralDirectory:
		return Fields{
			{"recordSize", h.RecordSize},
			{"creatorVersion", h.CreatorVersion},
			{"readerVersion", h.ReaderVersion},
			{"cdCount", h.CDCount},
			{"cdSize", h.CDSize},
			{"cdOffset", h.CDOffset},
			{"commentLength", h.CommentLength},
		}
	case *walk.Zip64EndOfCentralDirectoryLocator:
		return Fields{
			{"eocdDisk", h.EOCDDisk},
			{"eocdOffset", h.EOCDOffset},
			{"totalDisks", h.TotalDisks},
		}
	case *walk.DataDescriptor:
		return Fields{
			{"crc32", hex32(h.CRC32)},
			{"compressedSize", h.CompressedSize},
			{"uncompressedSize", h.UncompressedSize},
			{"zip64", h.Zip64},
		}
	case *walk.Unknown:
		return Fields{{"lookahead", fmt.Sprintf("% x", h.Lookahead)}}
	default:
		return nil
	}
}

// extraFields lists the IDs of the extra field blocks, and the ZIP64 values if there are any.
func extraFields(extra []byte, compressedSize, uncompressedSize, offset uint32) (fields Fields) {
	if len(extra) == 0 {
		return nil
	}

	blocks, err := walk.ParseExtraFields(extra)
	ids := make([]string, 0, len(blocks))
	for _, b := range blocks {
		ids = append(ids, hex16(b.ID))

		if b.ID != walk.ExtraIDZip64 {
			continue
		}

		info, err := walk.ParseZip64ExtendedInfo(b.Data, uncompressedSize == 0xffffffff, compressedSize == 0xffffffff, offset == 0xffffffff)
		if err != nil {
			fields = append(fields, Field{"zip64Error", err.Error()})
			continue
		}
		if info.UncompressedSize != nil {
			fields = append(fields, Field{"zip64UncompressedSize", *info.UncompressedSize})
		}
		if info.CompressedSize != nil {
			fields = append(fields, Field{"zip64CompressedSize", *info.CompressedSize})
		}
		if info.LocalHeaderOffset != nil {
			fields = append(fields, Field{"zip64Offset", *info.LocalHeaderOffset})
		}
	}

	fields = append(Fields{{"extra", ids}}, fields...)
	if err != nil {
		fields = append(fields, Field{"extraError", err.Error()})
	}

	return fields
}

// Signatures creates a Document from the result of walk.Signatures.
func Signatures(name string, data []byte, hits iter.Seq2[int, walk.Kind]) *Document {
	d := &Document{
		File:    name,
		Format:  "zip signatures",
		Size:    len(data),
		End:     len(data),
		Cursor:  len(data),
		Records: make([]Entry, 0),
	}

	for offset, kind := range hits {
		e := Entry{Kind: kind.String(), Start: offset, End: min(offset+4, len(data))}
		e.Fields = Fields{{"bytes", fmt.Sprintf("% x", data[e.Start:e.End])}}
		d.Records = append(d.Records, e)
	}

	return d
}

// PNG creates a Document from the result of png.Walk.
func PNG(name string, data []byte, res *png.Result, err error) *Document {
	d := &Document{
		File:    name,
		Format:  "png",
		Size:    len(data),
		Start:   res.Start,
		End:     res.End,
		Cursor:  res.Cursor,
		Records: make([]Entry, 0, len(res.Chunks)+2),
	}
	d.setError(err)

	if res.Signature != nil {
		d.Records = append(d.Records, Entry{
			Kind:   "signature",
			Start:  res.Start,
			End:    res.Start + len(res.Signature),
			Fields: Fields{{"bytes", fmt.Sprintf("% x", res.Signature)}},
		})
	}

	for _, c := range res.Chunks {
		d.Records = append(d.Records, Entry{
			Kind:    c.Type,
			Start:   c.Start,
			End:     c.End,
			Payload: &walk.Span{Start: c.Start + 8, End: c.End - 4},
			Fields: Fields{
				{"length", c.Length},
				{"critical", c.Critical()},
				{"crc", hex32(c.CRC)},
			},
			preview: c.Data,
		})
	}

	if trailing := res.Trailing(data); trailing != nil {
		d.Records = append(d.Records, Entry{
			Kind:    "trailing data",
			Start:   res.Cursor,
			End:     res.End,
			Payload: &walk.Span{Start: res.Cursor, End: res.End},
			preview: trailing,
		})
	}

	return d
}

// Gzip creates a Document from the result of gzip.Walk.
func Gzip(name string, data []byte, res *gzip.Result, err error) *Document {
	d := &Document{
		File:    name,
		Format:  "gzip",
		Size:    len(data),
		Start:   res.Start,
		End:     res.End,
		Cursor:  res.Cursor,
		Records: make([]Entry, 0, 3),
	}
	d.setError(err)

	if h := res.Header; h != nil {
		fields := Fields{
			{"method", h.Method},
			{"flags", fmt.Sprintf("0x%02x", h.Flags)},
			{"modTime", h.ModTime},
			{"extraFlags", h.ExtraFlags},
			{"os", h.OS},
		}
		if h.ModTime != 0 {
			fields = append(fields, Field{"modified", h.Modified().Format(time.RFC3339)})
		}
		if h.Extra != nil {
			fields = append(fields, Field{"extra", fmt.Sprintf("% x", h.Extra)})
		}
		if h.Name != nil {
			fields = append(fields, Field{"name", text(h.Name)})
		}
		if h.Comment != nil {
			fields = append(fields, Field{"comment", text(h.Comment)})
		}
		if h.HeaderCRC16 != nil {
			fields = append(fields, Field{"headerCrc16", fmt.Sprintf("0x%04x", *h.HeaderCRC16)})
		}

		d.Records = append(d.Records, Entry{Kind: "header", Start: h.Start, End: h.End, Fields: fields})
	}

	if t := res.Trailer; t != nil {
		d.Records = append(d.Records,
			Entry{
				Kind:    "compressed block",
				Start:   res.CompressedStart,
				End:     t.Start,
				Payload: &walk.Span{Start: res.CompressedStart, End: t.Start},
				preview: res.Compressed,
			},
			Entry{
				Kind:   "trailer",
				Start:  t.Start,
				End:    t.Start + 8,
				Fields: Fields{{"crc32", hex32(t.CRC32)}, {"isize", t.ISize}},
			})
	}

	return d
}

// JFIF creates a Document from the result of jfif.Walk.
func JFIF(name string, data []byte, res *jfif.Result, err error) *Document {
	d := &Document{
		File:    name,
		Format:  "jfif",
		Size:    len(data),
		Start:   res.Start,
		End:     res.End,
		Cursor:  res.Cursor,
		Records: make([]Entry, 0, len(res.Segments)),
	}
	d.setError(err)

	for _, s := range res.Segments {
		e := Entry{Kind: s.Marker.String(), Start: s.Start, End: s.End, preview: s.Data}

		switch {
		case s.Marker == jfif.MarkerAPP0:
			e.Payload = &walk.Span{Start: s.End - len(s.Data), End: s.End}
			e.Fields = Fields{
				{"length", s.Length},
				{"identifier", text(s.Identifier)},
				{"thumbnailFormat", s.ThumbnailFormat},
			}
		case !s.Known:
			e.Payload = &walk.Span{Start: s.End - len(s.Data), End: s.End}
			e.Fields = Fields{{"known", false}}
		}

		d.Records = append(d.Records, e)
	}

	return d
}

// QuarantineEntries creates a Document from the result of quarantine.WalkEntries.
//
// Previews show decrypted bytes.
func QuarantineEntries(name string, data []byte, res *quarantine.EntriesResult, err error) *Document {
	d := &Document{
		File:    name,
		Format:  "quarantine entries",
		Size:    len(data),
		Start:   res.Start,
		End:     res.End,
		Cursor:  res.Cursor,
		Records: make([]Entry, 0, 3),
	}
	d.setError(err)

	if h := res.Header; h != nil {
		d.Records = append(d.Records, Entry{
			Kind:  "entries header",
			Start: h.Start,
			End:   h.End,
			Fields: Fields{
				{"fileId", fmt.Sprintf("% x", h.FileID)},
				{"knownFileId", h.KnownFileID},
				{"unknownId", fmt.Sprintf("% x", h.UnknownID)},
				{"part2Length", h.Part2Length},
				{"part3Length", h.Part3Length},
			},
			preview: h.Data,
		})
	}

	for i, p := range res.Parts {
		d.Records = append(d.Records, quarantinePart(fmt.Sprintf("entries part %d", i+2), &p))
	}

	return d
}

// QuarantineResourceData creates a Document from the result of quarantine.WalkResourceData.
//
// Previews show decrypted bytes.
func QuarantineResourceData(name string, data []byte, res *quarantine.ResourceDataResult, err error) *Document {
	d := &Document{
		File:    name,
		Format:  "quarantine resource data",
		Size:    len(data),
		Start:   res.Start,
		End:     res.End,
		Cursor:  res.Cursor,
		Records: make([]Entry, 0, 5),
	}
	d.setError(err)

	if h := res.Header; h != nil {
		d.Records = append(d.Records, Entry{
			Kind:  "resource data header",
			Start: h.Start,
			End:   h.End,
			Fields: Fields{
				{"fileId", fmt.Sprintf("% x", h.FileID)},
				{"knownFileId", h.KnownFileID},
				{"binaryDataLength", h.BinaryDataLength},
				{"padding", fmt.Sprintf("% x", h.Padding)},
			},
		})
	}

	if p := res.BinaryData; p != nil {
		d.Records = append(d.Records, quarantinePart("binary data", p))
	}

	if mh := res.MalwareHeader; mh != nil {
		d.Records = append(d.Records, Entry{
			Kind:  "malware header",
			Start: mh.Start,
			End:   mh.End,
			Fields: Fields{
				{"padding", fmt.Sprintf("% x", mh.Padding)},
				{"malwareLength", mh.MalwareLength},
				{"trailing", fmt.Sprintf("% x", mh.Trailing)},
			},
		})
	}

	if p := res.Malware; p != nil {
		d.Records = append(d.Records, quarantinePart("malware data", p))
	}

	if p := res.Remainder; p != nil && p.End > p.Start {
		d.Records = append(d.Records, quarantinePart("remainder", p))
	}

	return d
}

func quarantinePart(kind string, p *quarantine.Part) Entry {
	return Entry{
		Kind:    kind,
		Start:   p.Start,
		End:     p.End,
		Payload: &walk.Span{Start: p.Start, End: p.End},
		preview: p.Data,
	}
}

// text converts b to a string, falling back to hex if b is not valid UTF-8.
func text(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	return fmt.Sprintf("% x", b)
}

func hex16(v uint16) string {
	return fmt.Sprintf("0x%04x", v)
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08x", v)
}
