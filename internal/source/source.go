// Package source loads the bytes to be walked from local files or S3.
//
// Walks operate on fully-read buffers, so everything here reads the entire input into memory.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/ulikunitz/xz"
)

// ProgressOutput is where progress bars are rendered.
var ProgressOutput io.Writer = os.Stderr

// ErrTooLarge is returned if the input exceeds Options.MaxSize.
var ErrTooLarge = errors.New("input is too large to be loaded into memory")

// S3API is the subset of the S3 client used to download objects.
type S3API interface {
	manager.DownloadAPIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Options customises Load.
type Options struct {
	// Client is used for s3:// locations. Required only if such a location is loaded.
	Client S3API

	// ExpectedBucketOwner is passed along to every S3 request.
	ExpectedBucketOwner *string

	// MaxSize limits the number of bytes loaded, or unwrapped; 0 means no limit.
	MaxSize int64

	// Logger receives progress logs if ProgressLogInterval is positive.
	Logger              *zerolog.Logger
	ProgressLogInterval time.Duration

	// ProgressBar takes precedence over progress logs.
	ProgressBar        bool
	ProgressBarOptions []progressbar.Option

	// DownloadOptions modifies the S3 downloader.
	DownloadOptions []func(*manager.Downloader)
}

// File is a fully loaded input.
type File struct {
	// Name is the location that was loaded, either a local path or an s3:// URI.
	Name string
	Data []byte
	// Unwrapped lists the containers that have been peeled off the original bytes, outermost first.
	Unwrapped []string
}

// Load reads the entire content of the named local file or s3:// location.
func Load(ctx context.Context, name string, optFns ...func(*Options)) (*File, error) {
	opts := &Options{}
	for _, fn := range optFns {
		fn(opts)
	}

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(name, "s3://") {
		data, err = loadS3(ctx, name, opts)
	} else {
		data, err = loadFile(ctx, name, opts)
	}
	if err != nil {
		return nil, err
	}

	return &File{Name: name, Data: data}, nil
}

func loadFile(ctx context.Context, name string, opts *Options) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open file error: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file error: %w", err)
	}

	size := fi.Size()
	if opts.MaxSize > 0 && size > opts.MaxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLarge, size, opts.MaxSize)
	}

	p := newProgress(opts, "read", size)
	defer p.Close()

	buf := bytes.NewBuffer(make([]byte, 0, size))
	if err = copyContext(ctx, io.MultiWriter(buf, p), f); err != nil {
		return nil, fmt.Errorf("read file error: %w", err)
	}

	return buf.Bytes(), nil
}

func loadS3(ctx context.Context, name string, opts *Options) ([]byte, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("no S3 client to load %s", name)
	}

	bucket, key, err := ParseS3URI(name)
	if err != nil {
		return nil, err
	}

	headObjectOutput, err := opts.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket:              aws.String(bucket),
		Key:                 aws.String(key),
		ExpectedBucketOwner: opts.ExpectedBucketOwner,
	})
	if err != nil {
		return nil, fmt.Errorf("get object metadata error: %w", err)
	}

	size := aws.ToInt64(headObjectOutput.ContentLength)
	if opts.MaxSize > 0 && size > opts.MaxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLarge, size, opts.MaxSize)
	}

	p := newProgress(opts, "downloaded", size)
	defer p.Close()

	var client manager.DownloadAPIClient = opts.Client
	if opts.Logger != nil {
		client = &partLoggingClient{DownloadAPIClient: opts.Client, logger: opts.Logger}
	}

	buf := manager.NewWriteAtBuffer(make([]byte, 0, size))
	n, err := manager.NewDownloader(client, opts.DownloadOptions...).Download(ctx, &progressWriterAt{w: buf, p: p}, &s3.GetObjectInput{
		Bucket:              aws.String(bucket),
		Key:                 aws.String(key),
		ExpectedBucketOwner: opts.ExpectedBucketOwner,
		IfMatch:             headObjectOutput.ETag,
	})
	if err != nil {
		return nil, fmt.Errorf("download object error: %w", err)
	}

	return buf.Bytes()[:n], nil
}

// UnwrapXZ decompresses the xz stream in f.Data, replacing it with the decompressed bytes.
func UnwrapXZ(f *File, maxSize int64) error {
	r, err := xz.NewReader(bytes.NewReader(f.Data))
	if err != nil {
		return fmt.Errorf("create xz reader error: %w", err)
	}

	var src io.Reader = r
	if maxSize > 0 {
		src = io.LimitReader(r, maxSize+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("decompress xz error: %w", err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return fmt.Errorf("%w: xz content exceeds %d bytes", ErrTooLarge, maxSize)
	}

	f.Data = data
	f.Unwrapped = append(f.Unwrapped, "xz")
	return nil
}

// copyContext is a variant of io.Copy that checks for cancellation between reads.
func copyContext(ctx context.Context, dst io.Writer, src io.Reader) error {
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		nr, err := src.Read(buf)
		if nr > 0 {
			if _, werr := dst.Write(buf[:nr]); werr != nil {
				return werr
			}
		}

		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}
	}
}
