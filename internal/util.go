package internal

// TruncateRightWithSuffix keeps the first n runes of text and only appends the suffix if truncation happens.
func TruncateRightWithSuffix(text string, n int, suffix string) string {
	if n <= 0 {
		return suffix
	}

	rs := make([]rune, 0, n)
	for _, r := range text {
		if len(rs) >= n {
			return string(rs) + suffix
		}

		rs = append(rs, r)
	}

	return string(rs)
}

// FirstNonZero returns the first argument that is not the zero value.
func FirstNonZero[T comparable](values ...T) (v T) {
	for _, v = range values {
		if v != *new(T) {
			return v
		}
	}

	return
}
