package walk

import (
	"iter"

	"github.com/nguyengg/xwalk/bounded"
)

// FindNextSignature returns the first offset >= start at which "PK" occurs before the declared end of r.
//
// Returns r.End() if there is none, which is an expected outcome rather than an error. The scan is linear with no
// backtracking. The ranges scanned during a single walk never overlap, so the walk as a whole stays linear too.
func FindNextSignature(r *bounded.Reader, start int) int {
	return r.Index(start, sigPrefix)
}

// Signatures iterates over every offset in the window where resynchronisation would stop, along with the Kind that
// the 4 bytes at that offset classify to.
//
// Unlike Walk, Signatures does not decode any record so it also reports signatures that are embedded inside file
// data. This is useful for carving.
func Signatures(data []byte, optFns ...func(*bounded.Options)) iter.Seq2[int, Kind] {
	opts := bounded.NewOptions(optFns...)

	return func(yield func(int, Kind) bool) {
		r := bounded.NewWindow(data, opts.Offset, opts.MaxLength)

		for i := FindNextSignature(r, r.Start()); i < r.End(); i = FindNextSignature(r, i+1) {
			kind := KindUnknown
			if b, err := r.Bytes(i, 4); err == nil {
				kind = Classify(b)
			}

			if !yield(i, kind) {
				return
			}
		}
	}
}
