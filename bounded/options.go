package bounded

import "math"

// Options describes the window that a walker reads.
//
// Every walker in this module accepts the same option functions so that a window can be built once and passed to
// whichever walker handles the input.
type Options struct {
	// Offset is the offset into data where the window starts.
	Offset int

	// MaxLength limits the number of bytes in the window.
	//
	// By default, the window extends until the end of data. A non-positive value means the same.
	MaxLength int
}

// WithOffset sets Options.Offset.
func WithOffset(offset int) func(*Options) {
	return func(opts *Options) {
		opts.Offset = offset
	}
}

// WithMaxLength sets Options.MaxLength.
func WithMaxLength(maxLength int) func(*Options) {
	return func(opts *Options) {
		opts.MaxLength = maxLength
	}
}

// NewOptions applies optFns in order over the zero Options.
func NewOptions(optFns ...func(*Options)) Options {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return opts
}

// NewReader returns a Reader over the window described by optFns.
func NewReader(data []byte, optFns ...func(*Options)) *Reader {
	opts := NewOptions(optFns...)
	return NewWindow(data, opts.Offset, opts.MaxLength)
}

// CheckLength is a variant of Check for lengths decoded from unsigned fields.
//
// The length is returned as an int if [offset, offset+length) fits in the window. A length that does not fit in an
// int at all is reported with Needed set to math.MaxInt.
func (r *Reader) CheckLength(segment string, offset int, length uint64) (int, error) {
	if length > uint64(math.MaxInt) {
		return 0, &InsufficientDataError{
			Segment:   segment,
			At:        offset,
			Needed:    math.MaxInt,
			Available: r.Remaining(offset),
		}
	}

	n := int(length)
	if err := r.Check(segment, offset, n); err != nil {
		return 0, err
	}

	return n, nil
}
