package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/xwalk/internal"
	"github.com/nguyengg/xwalk/internal/config"
	"github.com/nguyengg/xwalk/internal/source"
)

type Xwalk struct {
	Profile    string     `short:"p" long:"profile" description:"override the AWS profile used for s3:// locations"`
	Walk       Walk       `command:"walk" alias:"w" description:"walk the records of ZIP containers and other self-describing formats"`
	Signatures Signatures `command:"signatures" alias:"sig" description:"list every offset where a ZIP signature could start"`
}

// NewParser creates the parser for all commands.
//
// The .xwalk configuration file is loaded right before the chosen command executes.
func NewParser() (*flags.Parser, error) {
	opts := &Xwalk{}

	p := flags.NewNamedParser("xwalk", flags.Default)
	if _, err := p.AddGroup("Global Options", "", opts); err != nil {
		return nil, err
	}

	p.CommandHandler = func(command flags.Commander, args []string) error {
		if command == nil {
			return nil
		}

		logger := internal.NewLogger("")
		path, err := config.LoadProfile(context.Background(), opts.Profile)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msgf(`load config "%s" error`, path)
		case path != "":
			logger.Debug().Msgf(`loaded config "%s"`, path)
		}

		return command.Execute(args)
	}

	return p, nil
}

// loadInput loads the named file or s3:// location using settings from the .xwalk file.
//
// Progress is logged with the logger attached to ctx.
func loadInput(ctx context.Context, name string, progressBar bool, maxSize int64) (*source.File, error) {
	var (
		client *s3.Client
		s3cfg  = config.ForS3()
		err    error
	)

	if _, _, err = source.ParseS3URI(name); err == nil {
		client, err = config.NewS3Client(ctx, func(options *s3.Options) {
			// without this, getting a bunch of WARN message below:
			// WARN Response has no supported checksum. Not validating response payload.
			options.DisableLogOutputChecksumValidationSkipped = true
		})
		if err != nil {
			return nil, fmt.Errorf("create S3 client error: %w", err)
		}
	}

	return source.Load(ctx, name, func(opts *source.Options) {
		if client != nil {
			opts.Client = client
		}
		opts.ExpectedBucketOwner = s3cfg.ExpectedBucketOwner
		opts.MaxSize = maxSize
		opts.Logger = internal.MustLogger(ctx)
		opts.ProgressLogInterval = 5 * time.Second
		opts.ProgressBar = progressBar
	})
}

// stdout returns w if non-nil, os.Stdout otherwise.
func stdout(w io.Writer) io.Writer {
	if w != nil {
		return w
	}

	return os.Stdout
}
