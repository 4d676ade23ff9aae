package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/nguyengg/xwalk/bounded"
	"github.com/nguyengg/xwalk/format/gzip"
	"github.com/nguyengg/xwalk/format/jfif"
	"github.com/nguyengg/xwalk/format/png"
	"github.com/nguyengg/xwalk/format/quarantine"
	"github.com/nguyengg/xwalk/internal"
	"github.com/nguyengg/xwalk/internal/config"
	"github.com/nguyengg/xwalk/internal/detect"
	"github.com/nguyengg/xwalk/internal/render"
	"github.com/nguyengg/xwalk/internal/source"
	"github.com/nguyengg/xwalk/zip/walk"
)

var (
	// ErrUnrecognizedInput is returned for inputs whose format cannot be detected.
	ErrUnrecognizedInput = errors.New("unrecognized input format; use --type to force one")

	// ErrStrict is returned in strict mode if a ZIP walk produced unknown records.
	ErrStrict = errors.New("strict mode violation")
)

type Walk struct {
	Offset      int    `long:"offset" description:"start walking at this offset"`
	MaxLength   int    `long:"max-length" description:"walk at most this many bytes; defaults to max-length from [walk] section of .xwalk"`
	Type        string `short:"t" long:"type" choice:"auto" choice:"zip" choice:"png" choice:"gzip" choice:"jfif" choice:"quarantine" default:"auto" description:"format of the inputs"`
	Output      string `short:"o" long:"output" choice:"text" choice:"json" choice:"yaml" description:"output format; defaults to output from [walk] section of .xwalk, or text"`
	Hexdump     int    `long:"hexdump" description:"dump up to this many bytes of each record's payload in text output"`
	Strict      bool   `long:"strict" description:"fail if a ZIP walk finds unknown records or no end of central directory record"`
	MaxSize     int64  `long:"max-size" description:"refuse to load inputs (or unwrapped xz content) larger than this many bytes"`
	ProgressBar bool   `long:"progress-bar" description:"show a progress bar instead of progress logs while loading inputs"`
	Args        struct {
		Files []string `positional-arg-name:"file" description:"local files or s3://bucket/key locations to walk" required:"yes"`
	} `positional-args:"yes"`

	out io.Writer
}

func (c *Walk) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	cfg := config.ForWalk()
	c.MaxLength = internal.FirstNonZero(c.MaxLength, cfg.MaxLength)
	c.Hexdump = internal.FirstNonZero(c.Hexdump, cfg.Hexdump)
	c.Output = internal.FirstNonZero(c.Output, cfg.Output, render.Text)
	c.Strict = c.Strict || cfg.Strict

	forced, err := detect.Parse(c.Type)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	var errs *multierror.Error
	docs := make([]*render.Document, 0, len(c.Args.Files))
	n := len(c.Args.Files)
	for i, name := range c.Args.Files {
		ctx := internal.WithPrefixLogger(ctx, internal.Prefix(i, n, name))
		logger := internal.MustLogger(ctx)

		doc, err := c.walk(ctx, name, forced)
		if doc != nil {
			docs = append(docs, doc)
		}
		if err == nil {
			logger.Info().Msgf("done walking %d records", len(doc.Records))
			continue
		}

		errs = multierror.Append(errs, fmt.Errorf(`walk "%s" error: %w`, name, err))
		if errors.Is(err, context.Canceled) {
			break
		}

		logger.Error().Err(err).Msg("walk error")
	}

	if err = render.Write(stdout(c.out), docs, render.Options{Output: c.Output, Hexdump: c.Hexdump}); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("write output error: %w", err))
	}

	return errs.ErrorOrNil()
}

// walk loads and walks a single input.
//
// The returned document is non-nil as long as the input could be loaded, even if the walk itself failed.
func (c *Walk) walk(ctx context.Context, name string, format detect.Format) (*render.Document, error) {
	logger := internal.MustLogger(ctx)

	f, err := loadInput(ctx, name, c.ProgressBar, c.MaxSize)
	if err != nil {
		return nil, err
	}

	if format == detect.Unknown {
		if format, err = detect.Detect(ctx, f.Data); err != nil {
			return nil, err
		}

		if format == detect.XZ {
			if err = source.UnwrapXZ(f, c.MaxSize); err != nil {
				return nil, err
			}

			if format, err = detect.Detect(ctx, f.Data); err != nil {
				return nil, err
			}
		}

		logger.Debug().Msgf("detected %s", format)
	}

	window := []func(*bounded.Options){bounded.WithOffset(c.Offset), bounded.WithMaxLength(c.MaxLength)}

	var doc *render.Document
	switch format {
	case detect.Zip:
		var res *walk.Result
		res, err = walk.Walk(f.Data, window...)
		doc = render.Zip(name, f.Data, res, err)
		if err == nil && c.Strict {
			err = strict(res)
		}
	case detect.PNG:
		var res *png.Result
		res, err = png.Walk(f.Data, window...)
		doc = render.PNG(name, f.Data, res, err)
	case detect.Gzip:
		var res *gzip.Result
		res, err = gzip.Walk(f.Data, window...)
		doc = render.Gzip(name, f.Data, res, err)
	case detect.JFIF:
		var res *jfif.Result
		res, err = jfif.Walk(f.Data, window...)
		doc = render.JFIF(name, f.Data, res, err)
	case detect.Quarantine:
		switch quarantine.Identify(f.Data, window...) {
		case quarantine.KindEntries:
			var res *quarantine.EntriesResult
			res, err = quarantine.WalkEntries(f.Data, window...)
			doc = render.QuarantineEntries(name, f.Data, res, err)
		case quarantine.KindResourceData:
			var res *quarantine.ResourceDataResult
			res, err = quarantine.WalkResourceData(f.Data, window...)
			doc = render.QuarantineResourceData(name, f.Data, res, err)
		default:
			return nil, ErrUnrecognizedInput
		}
	default:
		return nil, ErrUnrecognizedInput
	}

	doc.Unwrapped = f.Unwrapped
	return doc, err
}

// strict returns ErrStrict if res has unknown records, or ErrUnrecognizedFormat if it has no EOCD record.
func strict(res *walk.Result) error {
	if err := walk.RequireEndOfCentralDirectory(res); err != nil {
		return err
	}

	if unknown := res.Unknown(); len(unknown) != 0 {
		return fmt.Errorf("%w: %d unknown records, first at %d (0x%x)", ErrStrict, len(unknown), unknown[0].Start, unknown[0].Start)
	}

	return nil
}
