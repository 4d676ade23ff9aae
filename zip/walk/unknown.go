package walk

import (
	"github.com/nguyengg/xwalk/bounded"
)

// decodeUnknown emits an unknown record from start up to the next "PK" after start.
//
// The search begins at start+1 so the walk always makes progress even if the bytes at start are "PK" followed by an
// unrecognised signature.
func decodeUnknown(r *bounded.Reader, start int) (Record, int, error) {
	end := FindNextSignature(r, start+1)

	lookahead, err := r.Bytes(start, min(4, r.End()-start))
	if err != nil {
		return Record{}, start, err
	}

	return Record{
		Kind:    KindUnknown,
		Start:   start,
		End:     end,
		Fields:  &Unknown{Lookahead: lookahead},
		Payload: Span{Start: start, End: end},
	}, end, nil
}
