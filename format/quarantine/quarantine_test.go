package quarantine

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/nguyengg/xwalk/bounded"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// entriesBytes builds an encrypted Entries file whose header declares the given part lengths.
func entriesBytes(part2, part3 []byte, part2Length, part3Length uint32) []byte {
	h := make([]byte, entriesHeaderLen)
	copy(h, EntriesFileID)
	copy(h[0x10:], "unknowid")
	binary.LittleEndian.PutUint32(h[entriesPart2LengthAt:], part2Length)
	binary.LittleEndian.PutUint32(h[entriesPart3LengthAt:], part3Length)

	data := Decrypt(h)
	data = append(data, Decrypt(part2)...)
	return append(data, Decrypt(part3)...)
}

// resourceDataBytes builds an encrypted ResourceData file.
func resourceDataBytes(fileID, binaryData, malware, remainder []byte) []byte {
	b := bytes.Clone(fileID)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(binaryData)))
	b = append(b, bytes.Repeat([]byte{0xaa}, 8)...)
	b = append(b, binaryData...)
	b = append(b, bytes.Repeat([]byte{0xbb}, 8)...)
	b = binary.LittleEndian.AppendUint64(b, uint64(len(malware)))
	b = append(b, 0xcc, 0xcc, 0xcc, 0xcc)
	b = append(b, malware...)
	return Decrypt(append(b, remainder...))
}

func TestDecrypt(t *testing.T) {
	// the first 16 bytes of the key stream.
	assert.Equal(t, []byte{
		0x08, 0xad, 0x00, 0x98, 0x93, 0xfd, 0xde, 0x68, 0xc2, 0xf9, 0x91, 0xc7, 0x81, 0xfa, 0xfc, 0x90,
	}, Decrypt(make([]byte, 16)))

	in := []byte("hello, world")
	enc := Decrypt(in)
	assert.Equal(t, []byte("hello, world"), in)
	assert.NotEqual(t, in, enc)
	assert.Equal(t, in, Decrypt(enc))
}

func TestIdentify(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		optFns []func(*bounded.Options)
		want   Kind
	}{
		{name: "entries", data: entriesBytes(nil, nil, 0, 0), want: KindEntries},
		{name: "resource data", data: resourceDataBytes(ResourceDataFileID, nil, nil, nil), want: KindResourceData},
		{
			name:   "windowed resource data",
			data:   append([]byte("junk"), resourceDataBytes(ResourceDataFileID, nil, nil, nil)...),
			optFns: []func(*bounded.Options){bounded.WithOffset(4)},
			want:   KindResourceData,
		},
		{name: "unencrypted id", data: EntriesFileID, want: KindUnknown},
		{name: "too short", data: Decrypt(ResourceDataFileID[:7]), want: KindUnknown},
		{name: "empty", want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Identify(tt.data, tt.optFns...))
		})
	}
}

func TestWalkEntries(t *testing.T) {
	data := entriesBytes([]byte("second part"), []byte("third"), 11, 5)

	res, err := WalkEntries(data)
	require.NoError(t, err)
	assert.True(t, res.Done())

	h := res.Header
	require.NotNil(t, h)
	assert.True(t, h.KnownFileID)
	assert.Equal(t, EntriesFileID, h.FileID)
	assert.Equal(t, []byte("unknowid"), h.UnknownID)
	assert.Equal(t, uint32(11), h.Part2Length)
	assert.Equal(t, uint32(5), h.Part3Length)
	assert.Equal(t, 0x3c, h.End)

	require.Len(t, res.Parts, 2)
	assert.Equal(t, Part{Start: 0x3c, End: 0x3c + 11, Data: []byte("second part")}, res.Parts[0])
	assert.Equal(t, Part{Start: 0x3c + 11, End: 0x3c + 16, Data: []byte("third")}, res.Parts[1])
}

func TestWalkEntries_Window(t *testing.T) {
	entries := entriesBytes([]byte("ab"), []byte("cd"), 2, 2)
	data := append(append([]byte("junk"), entries...), "tail"...)

	res, err := WalkEntries(data, bounded.WithOffset(4), bounded.WithMaxLength(len(entries)))
	require.NoError(t, err)
	assert.True(t, res.Done())
	assert.True(t, res.Header.KnownFileID)
	assert.Equal(t, 4, res.Header.Start)
	require.Len(t, res.Parts, 2)
	assert.Equal(t, []byte("cd"), res.Parts[1].Data)
	assert.Equal(t, 4+len(entries), res.Cursor)
}

func TestWalkEntries_Errors(t *testing.T) {
	full := entriesBytes([]byte("second part"), []byte("third"), 11, 5)

	tests := []struct {
		name    string
		data    []byte
		segment string
		at      int
		parts   int
	}{
		{name: "short header", data: full[:0x3b], segment: "entries header", at: 0},
		{name: "short part 2", data: full[:0x3c+10], segment: "entries part 2", at: 0x3c},
		{name: "short part 3", data: full[:len(full)-1], segment: "entries part 3", at: 0x3c + 11, parts: 1},
		{name: "huge part 2", data: entriesBytes(nil, nil, math.MaxUint32, 0), segment: "entries part 2", at: 0x3c},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := WalkEntries(tt.data)
			require.ErrorIs(t, err, bounded.ErrInsufficientData)

			var ide *bounded.InsufficientDataError
			require.ErrorAs(t, err, &ide)
			assert.Equal(t, tt.segment, ide.Segment)
			assert.Equal(t, tt.at, ide.At)
			assert.Positive(t, ide.Needed)
			assert.Len(t, res.Parts, tt.parts)
			assert.Equal(t, tt.at, res.Cursor)
		})
	}
}

func TestWalkResourceData(t *testing.T) {
	data := resourceDataBytes(ResourceDataFileID, []byte("binary"), []byte("MZ malware"), []byte("rest"))
	original := bytes.Clone(data)

	res, err := WalkResourceData(data)
	require.NoError(t, err)
	assert.True(t, res.Done())
	assert.Equal(t, original, data)

	h := res.Header
	require.NotNil(t, h)
	assert.True(t, h.KnownFileID)
	assert.Equal(t, uint32(6), h.BinaryDataLength)
	assert.Equal(t, bytes.Repeat([]byte{0xaa}, 8), h.Padding)
	assert.Equal(t, 20, h.End)

	assert.Equal(t, &Part{Start: 20, End: 26, Data: []byte("binary")}, res.BinaryData)

	mh := res.MalwareHeader
	require.NotNil(t, mh)
	assert.Equal(t, 26, mh.Start)
	assert.Equal(t, 46, mh.End)
	assert.Equal(t, uint64(10), mh.MalwareLength)
	assert.Equal(t, bytes.Repeat([]byte{0xbb}, 8), mh.Padding)
	assert.Equal(t, []byte{0xcc, 0xcc, 0xcc, 0xcc}, mh.Trailing)

	assert.Equal(t, &Part{Start: 46, End: 56, Data: []byte("MZ malware")}, res.Malware)
	assert.Equal(t, &Part{Start: 56, End: 60, Data: []byte("rest")}, res.Remainder)
}

func TestWalkResourceData_Window(t *testing.T) {
	file := resourceDataBytes(ResourceDataFileID, nil, []byte("payload"), nil)
	data := append(append([]byte("junk"), file...), "tail"...)

	res, err := WalkResourceData(data, bounded.WithOffset(4), bounded.WithMaxLength(len(file)))
	require.NoError(t, err)
	assert.True(t, res.Header.KnownFileID)
	assert.Equal(t, 4, res.Header.Start)
	assert.Equal(t, &Part{Start: 24, End: 24, Data: []byte{}}, res.BinaryData)
	assert.Equal(t, []byte("payload"), res.Malware.Data)
	assert.Empty(t, res.Remainder.Data)
	assert.Equal(t, 4+len(file), res.Cursor)
}

func TestWalkResourceData_UnknownFileID(t *testing.T) {
	data := resourceDataBytes([]byte("notanid!"), nil, []byte("x"), nil)

	res, err := WalkResourceData(data)
	require.NoError(t, err)
	assert.False(t, res.Header.KnownFileID)
	assert.Equal(t, []byte("notanid!"), res.Header.FileID)
	assert.Equal(t, []byte("x"), res.Malware.Data)
}

func TestWalkResourceData_Errors(t *testing.T) {
	full := resourceDataBytes(ResourceDataFileID, []byte("binary"), []byte("MZ malware"), nil)

	// malware length of MaxUint64, written at the same stream position so the rest still decrypts.
	plain := Decrypt(full)
	binary.LittleEndian.PutUint64(plain[26+8:], math.MaxUint64)
	huge := Decrypt(plain)

	tests := []struct {
		name    string
		data    []byte
		segment string
		at      int
	}{
		{name: "short header", data: full[:19], segment: "resource data header", at: 0},
		{name: "short binary data", data: full[:25], segment: "binary data", at: 20},
		{name: "short malware header", data: full[:45], segment: "malware header", at: 26},
		{name: "short malware data", data: full[:55], segment: "malware data", at: 46},
		{name: "huge malware data", data: huge, segment: "malware data", at: 46},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := WalkResourceData(tt.data)
			require.ErrorIs(t, err, bounded.ErrInsufficientData)

			var ide *bounded.InsufficientDataError
			require.ErrorAs(t, err, &ide)
			assert.Equal(t, tt.segment, ide.Segment)
			assert.Equal(t, tt.at, ide.At)
			assert.Positive(t, ide.Needed)
			assert.Equal(t, tt.at, res.Cursor)
			assert.Nil(t, res.Remainder)
		})
	}
}
