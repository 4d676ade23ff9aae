// Package walk decodes a ZIP container front to back into a list of typed records.
//
// Unlike archive/zip which starts from the central directory, walk reads every byte in order and keeps going when it
// runs into data it doesn't recognise, which makes it suitable for inspecting damaged or suspicious archives. It
// never decompresses file data nor validates checksums; records only point at the byte ranges they occupy.
//
// Resynchronisation happens in two situations: an unrecognised region extends up to the next "PK", and so does the
// file data of a local file header whose sizes cannot be trusted (bit 3 of the flags is set, or both sizes are the
// ZIP64 sentinel 0xFFFFFFFF). "PK" appearing inside compressed data will cut such file data short; the remainder is
// then reported as an unknown record.
package walk

import (
	"errors"
	"fmt"
	"iter"

	"github.com/nguyengg/xwalk/bounded"
)

var (
	// ErrInsufficientData is matched by errors returned when a record needs more bytes than remain.
	ErrInsufficientData = bounded.ErrInsufficientData

	// ErrUnrecognizedFormat is returned by RequireEndOfCentralDirectory if the walk found no EOCD record.
	//
	// Walk itself never returns this error.
	ErrUnrecognizedFormat = errors.New("end of central directory not found; most likely not a ZIP file")
)

// InsufficientDataError is the concrete error type behind ErrInsufficientData.
type InsufficientDataError = bounded.InsufficientDataError

// Result is the outcome of Walk.
type Result struct {
	// Records are the decoded records in order. Consecutive records never overlap nor leave a gap.
	Records []Record
	// Start and End are the walked window.
	Start, End int
	// Cursor is where the walk stopped. It equals End if the walk completed, or the start of the record that failed
	// to decode otherwise.
	Cursor int
}

// Done returns true if the walk reached the end of the window.
func (r *Result) Done() bool {
	return r.Cursor >= r.End
}

// Filter returns the records of the given kind.
func (r *Result) Filter(kind Kind) []Record {
	records := make([]Record, 0)
	for _, rec := range r.Records {
		if rec.Kind == kind {
			records = append(records, rec)
		}
	}

	return records
}

// Unknown returns the unknown records. Callers that need strict validation can treat a non-empty result as failure.
func (r *Result) Unknown() []Record {
	return r.Filter(KindUnknown)
}

// Walk decodes the records in data from front to back.
//
// A non-nil Result is always returned. If a record fails to decode, the walk stops there and the records decoded so
// far are returned along with the error, which matches ErrInsufficientData. Unrecognised bytes are not an error;
// they become KindUnknown records.
//
// Records reference data without copying it. Do not modify data while the result is still in use.
func Walk(data []byte, optFns ...func(*bounded.Options)) (*Result, error) {
	w := newWalker(data, bounded.NewOptions(optFns...))
	res := &Result{
		Records: make([]Record, 0),
		Start:   w.r.Start(),
		End:     w.r.End(),
		Cursor:  w.cursor,
	}

	for w.cursor < w.r.End() {
		rec, err := w.next()
		if err != nil {
			res.Cursor = w.cursor
			return res, err
		}

		res.Records = append(res.Records, rec)
	}

	res.Cursor = w.cursor
	return res, nil
}

// All is the iterator variant of Walk.
//
// The iterator stops after yielding the first error.
func All(data []byte, optFns ...func(*bounded.Options)) iter.Seq2[Record, error] {
	opts := bounded.NewOptions(optFns...)

	return func(yield func(Record, error) bool) {
		w := newWalker(data, opts)

		for w.cursor < w.r.End() {
			rec, err := w.next()
			if err != nil {
				yield(Record{}, err)
				return
			}

			if !yield(rec, nil) {
				return
			}
		}
	}
}

// RequireEndOfCentralDirectory returns ErrUnrecognizedFormat if res has no EOCD record.
func RequireEndOfCentralDirectory(res *Result) error {
	if res == nil || len(res.Filter(KindEndOfCentralDirectory)) == 0 {
		return ErrUnrecognizedFormat
	}

	return nil
}

// walker holds the state of one walk.
type walker struct {
	r      *bounded.Reader
	buf    []byte
	cursor int

	// zip64 is true if the last local file header implies an 8-byte-size data descriptor.
	zip64 bool
}

func newWalker(data []byte, opts bounded.Options) *walker {
	r := bounded.NewWindow(data, opts.Offset, opts.MaxLength)
	return &walker{r: r, buf: data, cursor: r.Start()}
}

// next decodes the record at the cursor and advances past it.
//
// On error the cursor is left where it was.
func (w *walker) next() (rec Record, err error) {
	var (
		start = w.cursor
		next  int
	)

	lookahead, _ := w.r.Bytes(start, min(4, w.r.End()-start))

	kind := Classify(lookahead)
	switch kind {
	case KindLocalFileHeader:
		if rec, next, err = decodeLocalFileHeader(w.r, start); err == nil {
			w.zip64 = impliesZip64Descriptor(rec.Fields.(*LocalFileHeader))
		}
	case KindCentralDirectoryHeader:
		rec, next, err = decodeCentralDirectoryHeader(w.r, start)
	case KindEndOfCentralDirectory:
		rec, next, err = decodeEndOfCentralDirectory(w.r, start)
	case KindZip64EndOfCentralDirectory:
		rec, next, err = decodeZip64EndOfCentralDirectory(w.r, start)
	case KindZip64EndOfCentralDirectoryLocator:
		rec, next, err = decodeZip64EndOfCentralDirectoryLocator(w.r, start)
	case KindDataDescriptor:
		rec, next, err = decodeDataDescriptor(w.r, start, w.zip64)
	case KindUnknown:
		rec, next, err = decodeUnknown(w.r, start)
	default:
		// a Kind that Classify can produce but isn't handled above; treat as unknown so the walk still progresses.
		rec, next, err = decodeUnknown(w.r, start)
	}

	if err != nil {
		return Record{}, fmt.Errorf("decode %s at %d (0x%x): %w", kind, start, start, err)
	}

	rec.buf = w.buf
	w.cursor = next
	return rec, nil
}
