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
	"github.com/nguyengg/xwalk/internal"
	"github.com/nguyengg/xwalk/internal/config"
	"github.com/nguyengg/xwalk/internal/render"
	"github.com/nguyengg/xwalk/zip/walk"
)

type Signatures struct {
	Offset    int    `long:"offset" description:"start scanning at this offset"`
	MaxLength int    `long:"max-length" description:"scan at most this many bytes"`
	Output    string `short:"o" long:"output" choice:"text" choice:"json" choice:"yaml" description:"output format; defaults to output from [walk] section of .xwalk, or text"`
	MaxSize   int64  `long:"max-size" description:"refuse to load inputs larger than this many bytes"`
	Args      struct {
		Files []string `positional-arg-name:"file" description:"local files or s3://bucket/key locations to scan" required:"yes"`
	} `positional-args:"yes"`

	out io.Writer
}

func (c *Signatures) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	c.Output = internal.FirstNonZero(c.Output, config.ForWalk().Output, render.Text)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	var errs *multierror.Error
	docs := make([]*render.Document, 0, len(c.Args.Files))
	n := len(c.Args.Files)
	for i, name := range c.Args.Files {
		ctx := internal.WithPrefixLogger(ctx, internal.Prefix(i, n, name))

		f, err := loadInput(ctx, name, false, c.MaxSize)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf(`load "%s" error: %w`, name, err))
			if errors.Is(err, context.Canceled) {
				break
			}

			internal.MustLogger(ctx).Error().Err(err).Msg("load error")
			continue
		}

		doc := render.Signatures(name, f.Data, walk.Signatures(f.Data, bounded.WithOffset(c.Offset), bounded.WithMaxLength(c.MaxLength)))
		internal.MustLogger(ctx).Info().Msgf("found %d signatures", len(doc.Records))
		docs = append(docs, doc)
	}

	if err := render.Write(stdout(c.out), docs, render.Options{Output: c.Output}); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("write output error: %w", err))
	}

	return errs.ErrorOrNil()
}
