package jfif

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"

	"github.com/nguyengg/xwalk/bounded"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// app0 is an APP0 segment with version 1.2, no density units, and no thumbnail.
var app0 = []byte{
	0xff, 0xe0, 0x00, 0x10,
	'J', 'F', 'I', 'F', 0x00,
	0x01, 0x02, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00,
}

func TestWalk(t *testing.T) {
	data := []byte{0xff, 0xd8}
	data = append(data, app0...)
	data = append(data, 0xff, 0xdb, 0x00, 0x43, 0x00, 0x01, 0xff, 0xc0)

	res, err := Walk(data)
	require.NoError(t, err)
	require.Len(t, res.Segments, 3)

	soi := res.Segments[0]
	assert.Equal(t, MarkerSOI, soi.Marker)
	assert.Equal(t, 0, soi.Start)
	assert.Equal(t, 2, soi.End)

	a := res.Segments[1]
	assert.Equal(t, MarkerAPP0, a.Marker)
	assert.Equal(t, uint16(16), a.Length)
	assert.Equal(t, []byte("JFIF\x00"), a.Identifier)
	assert.Equal(t, uint8(1), a.ThumbnailFormat)
	assert.Len(t, a.Data, 8)
	assert.Equal(t, 2+len(app0), a.End)

	unknown := res.Segments[2]
	assert.Equal(t, Marker(0xffdb), unknown.Marker)
	assert.False(t, unknown.Known)
	assert.Equal(t, []byte{0x00, 0x43, 0x00, 0x01}, unknown.Data)
	assert.Equal(t, "0xFFDB", unknown.Marker.String())

	// the walk ends at the first unknown marker.
	assert.Equal(t, len(data)-2, res.Cursor)
	assert.False(t, res.Done())
}

func TestWalk_Encoded(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, jpeg.Encode(buf, image.NewGray(image.Rect(0, 0, 4, 4)), nil))

	res, err := Walk(buf.Bytes())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(res.Segments), 2)
	assert.Equal(t, MarkerSOI, res.Segments[0].Marker)
	assert.False(t, res.Segments[len(res.Segments)-1].Known)
}

func TestWalk_Errors(t *testing.T) {
	soi := []byte{0xff, 0xd8}

	tests := []struct {
		name    string
		data    []byte
		segment string
		n       int
	}{
		{name: "short marker", data: []byte{0xff}, segment: "marker"},
		{name: "short APP0 header", data: append(bytes.Clone(soi), app0[:6]...), segment: "APP0 header", n: 1},
		{name: "short APP0 data", data: append(bytes.Clone(soi), app0[:14]...), segment: "APP0 data", n: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Walk(tt.data)
			require.ErrorIs(t, err, bounded.ErrInsufficientData)

			var ide *bounded.InsufficientDataError
			require.ErrorAs(t, err, &ide)
			assert.Equal(t, tt.segment, ide.Segment)
			assert.Len(t, res.Segments, tt.n)
		})
	}
}

func TestWalk_InvalidSegmentLength(t *testing.T) {
	data := bytes.Clone(app0)
	data[3] = 0x04

	_, err := Walk(data)
	assert.ErrorIs(t, err, ErrInvalidSegmentLength)
}

func TestWalk_UnknownRunsToEnd(t *testing.T) {
	data := []byte{0xff, 0xd8, 0xff, 0xfe, 'h', 'i'}

	res, err := Walk(data)
	require.NoError(t, err)
	require.Len(t, res.Segments, 2)
	assert.Equal(t, []byte("hi"), res.Segments[1].Data)
	assert.True(t, res.Done())
}

func TestWalk_Window(t *testing.T) {
	data := append([]byte("junk\xff\xd8"), app0...)
	data = append(data, "tail"...)

	res, err := Walk(data, bounded.WithOffset(4), bounded.WithMaxLength(2+len(app0)))
	require.NoError(t, err)
	require.Len(t, res.Segments, 2)
	assert.Equal(t, 4, res.Segments[0].Start)
	assert.Equal(t, MarkerAPP0, res.Segments[1].Marker)
	assert.Equal(t, 6+len(app0), res.Cursor)
	assert.True(t, res.Done())
}
