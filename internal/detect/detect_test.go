package detect

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	stdpng "image/png"
	"testing"

	kgzip "github.com/klauspost/compress/gzip"
	kzip "github.com/klauspost/compress/zip"
	"github.com/nguyengg/xwalk/format/quarantine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func TestDetect(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))

	pngBuf := &bytes.Buffer{}
	require.NoError(t, stdpng.Encode(pngBuf, img))

	jpegBuf := &bytes.Buffer{}
	require.NoError(t, jpeg.Encode(jpegBuf, img, nil))

	zipBuf := &bytes.Buffer{}
	zw := kzip.NewWriter(zipBuf)
	w, err := zw.Create("a.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello, world"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	gzBuf := &bytes.Buffer{}
	gw := kgzip.NewWriter(gzBuf)
	_, err = gw.Write([]byte("hello, world"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	xzBuf := &bytes.Buffer{}
	xw, err := xz.NewWriter(xzBuf)
	require.NoError(t, err)
	_, err = xw.Write(zipBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, xw.Close())

	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{name: "png", data: pngBuf.Bytes(), want: PNG},
		{name: "jfif", data: jpegBuf.Bytes(), want: JFIF},
		{name: "zip", data: zipBuf.Bytes(), want: Zip},
		{name: "gzip", data: gzBuf.Bytes(), want: Gzip},
		{name: "xz", data: xzBuf.Bytes(), want: XZ},
		{name: "prefixed zip", data: append([]byte("#!/bin/sh\nexit 0\n"), zipBuf.Bytes()...), want: Zip},
		{name: "quarantine entries", data: quarantine.Decrypt(append(bytes.Clone(quarantine.EntriesFileID), make([]byte, 0x2c)...)), want: Quarantine},
		{name: "quarantine resource data", data: quarantine.Decrypt(append(bytes.Clone(quarantine.ResourceDataFileID), "..."...)), want: Quarantine},
		{name: "text", data: []byte("plain old text"), want: Unknown},
		{name: "empty", data: nil, want: Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(context.Background(), tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{name: "", want: Unknown},
		{name: "auto", want: Unknown},
		{name: "ZIP", want: Zip},
		{name: "gz", want: Gzip},
		{name: "jpeg", want: JFIF},
		{name: "png", want: PNG},
		{name: "Quarantine", want: Quarantine},
		{name: "tar", want: Unknown, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
