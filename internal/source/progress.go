package source

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"
)

// newProgress returns the progress reporter configured by opts.
//
// verb describes the operation in log messages, e.g. "read" or "downloaded".
func newProgress(opts *Options, verb string, size int64) io.WriteCloser {
	switch {
	case opts.ProgressBar:
		return &barWriter{opts: opts.ProgressBarOptions, verb: verb, size: size}
	case opts.Logger != nil && opts.ProgressLogInterval > 0:
		return &logWriter{
			logger: opts.Logger,
			rate:   &rate.Sometimes{Interval: opts.ProgressLogInterval},
			verb:   verb,
			size:   size,
		}
	default:
		return nopWriter{}
	}
}

type logWriter struct {
	logger       *zerolog.Logger
	rate         *rate.Sometimes
	verb         string
	offset, size int64

	// mu guards offset since S3 parts are written concurrently.
	mu sync.Mutex
}

func (l *logWriter) Write(p []byte) (n int, err error) {
	n = len(p)

	l.mu.Lock()
	l.offset += int64(n)
	offset := l.offset
	l.mu.Unlock()

	l.rate.Do(func() {
		l.logger.Info().Msgf("%s %s / %s so far", l.verb, humanize.IBytes(uint64(offset)), humanize.IBytes(uint64(l.size)))
	})

	return n, nil
}

func (l *logWriter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.offset == l.size {
		l.logger.Info().Msgf("%s %s in total", l.verb, humanize.IBytes(uint64(l.offset)))
	} else {
		l.logger.Info().Msgf("%s %s / %s in total", l.verb, humanize.IBytes(uint64(l.offset)), humanize.IBytes(uint64(l.size)))
	}

	return nil
}

type barWriter struct {
	bar  *progressbar.ProgressBar
	opts []progressbar.Option
	verb string
	size int64
	once sync.Once
}

func (b *barWriter) Write(p []byte) (n int, err error) {
	// don't create the progress bar until there is something to show.
	b.once.Do(func() {
		b.bar = progressbar.NewOptions64(b.size, append([]progressbar.Option{
			progressbar.OptionSetDescription(b.verb),
			progressbar.OptionSetWriter(ProgressOutput),
			progressbar.OptionShowBytes(true),
			progressbar.OptionShowTotalBytes(true),
			progressbar.OptionSetWidth(10),
			progressbar.OptionThrottle(1 * time.Second),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				_, _ = fmt.Fprint(ProgressOutput, "\n")
			}),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionFullWidth(),
			progressbar.OptionSetRenderBlankState(true),
		}, b.opts...)...)
	})

	// ignore all errors from progress bar.
	_, _ = b.bar.Write(p)
	return len(p), nil
}

func (b *barWriter) Close() error {
	if b.bar != nil {
		return b.bar.Close()
	}

	return nil
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

func (nopWriter) Close() error {
	return nil
}

// progressWriterAt reports every successful WriteAt to a progress writer.
type progressWriterAt struct {
	w io.WriterAt
	p io.Writer
}

func (w *progressWriterAt) WriteAt(p []byte, off int64) (n int, err error) {
	n, err = w.w.WriteAt(p, off)
	_, _ = w.p.Write(p[:n])
	return
}
