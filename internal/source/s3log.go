package source

import (
	"context"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// partLoggingClient logs every successfully downloaded part at debug level.
//
// GetObject may be called from any of the goroutines that manager.Downloader uses to download parts in parallel, so
// the running tally is atomic.
type partLoggingClient struct {
	manager.DownloadAPIClient
	logger *zerolog.Logger
	parts  atomic.Int64
}

func (c *partLoggingClient) GetObject(ctx context.Context, input *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	output, err := c.DownloadAPIClient.GetObject(ctx, input, optFns...)
	if err == nil {
		c.logger.Debug().Msgf("downloaded %d parts so far (range %s)", c.parts.Add(1), aws.ToString(input.Range))
	}

	return output, err
}
