package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	kzip "github.com/klauspost/compress/zip"
	"github.com/nguyengg/xwalk/format/quarantine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func writeTestArchive(t *testing.T, dir, name string, prefix []byte, wrapXZ bool) string {
	t.Helper()

	buf := bytes.NewBuffer(prefix)
	zw := kzip.NewWriter(buf)
	zw.SetOffset(int64(len(prefix)))
	w, err := zw.CreateHeader(&kzip.FileHeader{Name: "hello.txt", Method: kzip.Store})
	require.NoError(t, err)
	_, err = w.Write([]byte("hello, world"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	data := buf.Bytes()
	if wrapXZ {
		xzBuf := &bytes.Buffer{}
		xw, err := xz.NewWriter(xzBuf)
		require.NoError(t, err)
		_, err = xw.Write(data)
		require.NoError(t, err)
		require.NoError(t, xw.Close())
		data = xzBuf.Bytes()
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

type testDocument struct {
	File      string
	Format    string
	Unwrapped []string
	Error     string
	Records   []struct {
		Kind   string
		Fields map[string]any
	}
}

func decodeDocuments(t *testing.T, out *bytes.Buffer) (docs []testDocument) {
	t.Helper()

	dec := json.NewDecoder(out)
	for dec.More() {
		var doc testDocument
		require.NoError(t, dec.Decode(&doc))
		docs = append(docs, doc)
	}

	return
}

func TestWalk_Execute(t *testing.T) {
	dir := t.TempDir()
	plain := writeTestArchive(t, dir, "plain.zip", nil, false)
	wrapped := writeTestArchive(t, dir, "wrapped.zip.xz", nil, true)

	out := &bytes.Buffer{}
	c := &Walk{Output: "json", Type: "auto", out: out}
	c.Args.Files = []string{plain, wrapped}
	require.NoError(t, c.Execute(nil))

	docs := decodeDocuments(t, out)
	require.Len(t, docs, 2)

	for _, doc := range docs {
		assert.Equal(t, "zip", doc.Format)
		assert.Empty(t, doc.Error)

		kinds := make([]string, 0)
		for _, rec := range doc.Records {
			kinds = append(kinds, rec.Kind)
		}
		assert.Equal(t, []string{"local file header", "data descriptor", "central directory header", "end of central directory"}, kinds)
		assert.Equal(t, "hello.txt", doc.Records[0].Fields["name"])
	}

	assert.Empty(t, docs[0].Unwrapped)
	assert.Equal(t, []string{"xz"}, docs[1].Unwrapped)
}

func TestWalk_Strict(t *testing.T) {
	dir := t.TempDir()
	prefixed := writeTestArchive(t, dir, "prefixed.zip", []byte("#!/bin/sh\nexit 0\n"), false)

	out := &bytes.Buffer{}
	c := &Walk{Output: "json", Type: "zip", out: out}
	c.Args.Files = []string{prefixed}
	require.NoError(t, c.Execute(nil))

	c = &Walk{Output: "json", Type: "zip", Strict: true, out: out}
	c.Args.Files = []string{prefixed}
	assert.ErrorIs(t, c.Execute(nil), ErrStrict)
}

func TestWalk_Errors(t *testing.T) {
	dir := t.TempDir()
	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("plain old text"), 0644))
	good := writeTestArchive(t, dir, "good.zip", nil, false)

	out := &bytes.Buffer{}
	c := &Walk{Type: "auto", out: out}
	c.Args.Files = []string{text, filepath.Join(dir, "missing.zip"), good}

	err := c.Execute(nil)
	assert.ErrorIs(t, err, ErrUnrecognizedInput)
	assert.ErrorIs(t, err, os.ErrNotExist)

	// the good file is still walked and rendered as text.
	assert.Contains(t, out.String(), "good.zip: zip")
	assert.Contains(t, out.String(), "4 records")
}

func TestWalk_Quarantine(t *testing.T) {
	plain := bytes.Clone(quarantine.ResourceDataFileID)
	plain = append(plain, 0, 0, 0, 0)
	plain = append(plain, make([]byte, 8)...)
	plain = append(plain, make([]byte, 8)...)
	plain = append(plain, 2, 0, 0, 0, 0, 0, 0, 0)
	plain = append(plain, 0, 0, 0, 0)
	plain = append(plain, "MZ"...)

	dir := t.TempDir()
	path := filepath.Join(dir, "quarantined")
	require.NoError(t, os.WriteFile(path, quarantine.Decrypt(plain), 0644))

	out := &bytes.Buffer{}
	c := &Walk{Output: "json", Type: "quarantine", out: out}
	c.Args.Files = []string{path}
	require.NoError(t, c.Execute(nil))

	docs := decodeDocuments(t, out)
	require.Len(t, docs, 1)
	assert.Equal(t, "quarantine resource data", docs[0].Format)
	assert.Empty(t, docs[0].Error)

	kinds := make([]string, 0)
	for _, rec := range docs[0].Records {
		kinds = append(kinds, rec.Kind)
	}
	assert.Equal(t, []string{"resource data header", "binary data", "malware header", "malware data"}, kinds)
	assert.Equal(t, true, docs[0].Records[0].Fields["knownFileId"])
	assert.Equal(t, float64(2), docs[0].Records[2].Fields["malwareLength"])

	// unencrypted input is neither kind of quarantine file.
	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("plain old text"), 0644))
	c = &Walk{Output: "json", Type: "quarantine", out: &bytes.Buffer{}}
	c.Args.Files = []string{text}
	assert.ErrorIs(t, c.Execute(nil), ErrUnrecognizedInput)
}

func TestSignatures_Execute(t *testing.T) {
	dir := t.TempDir()
	plain := writeTestArchive(t, dir, "plain.zip", nil, false)

	out := &bytes.Buffer{}
	c := &Signatures{out: out}
	c.Args.Files = []string{plain}
	require.NoError(t, c.Execute(nil))

	lines := strings.Split(out.String(), "\n")
	assert.True(t, strings.HasPrefix(lines[0], plain+": zip signatures"), lines[0])
	assert.Contains(t, lines[1], "local file header [0, 4)")
	assert.Contains(t, out.String(), "end of central directory")
}
