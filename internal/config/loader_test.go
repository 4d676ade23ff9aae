package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[walk]
max-length = 4096
hexdump = 32
output = yaml
strict = true

[s3]
profile = forensics
expected-bucket-owner = 123456789012
`

func chdir(t *testing.T, dir string) {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})
}

func TestLoader_Load(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultName), []byte(testConfig), 0644))

	// a directory with the same name must be skipped.
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(filepath.Join(nested, DefaultName), 0755))
	chdir(t, nested)

	l := &Loader{}
	path, err := l.Load(context.Background())
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(filepath.Join(root, DefaultName))
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.Equal(t, WalkConfig{MaxLength: 4096, Hexdump: 32, Output: "yaml", Strict: true}, l.ForWalk())

	s3cfg := l.ForS3()
	assert.Equal(t, "forensics", s3cfg.AWSProfile)
	require.NotNil(t, s3cfg.ExpectedBucketOwner)
	assert.Equal(t, "123456789012", *s3cfg.ExpectedBucketOwner)

	l.Profile = "override"
	assert.Equal(t, "override", l.ForS3().AWSProfile)
}

func TestLoader_Empty(t *testing.T) {
	l := &Loader{}
	assert.Equal(t, WalkConfig{}, l.ForWalk())
	assert.Equal(t, S3Config{}, l.ForS3())

	l.Name = ".xwalk-does-not-exist-anywhere"
	chdir(t, t.TempDir())
	path, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestLoader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&Loader{}).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
