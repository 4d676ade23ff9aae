package config

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config contains settings used when walking s3:// locations.
type S3Config struct {
	AWSProfile          string
	ExpectedBucketOwner *string
}

// ForS3 returns configuration from the [s3] section.
//
// Loader.Profile takes precedence over the profile from the file.
func (l *Loader) ForS3() (c S3Config) {
	c.AWSProfile = l.Profile

	sec, err := l.file().GetSection("s3")
	if err != nil {
		return c
	}

	if c.AWSProfile == "" {
		c.AWSProfile = sec.Key("profile").String()
	}
	if k := sec.Key("expected-bucket-owner"); k.String() != "" {
		c.ExpectedBucketOwner = aws.String(k.String())
	}

	return
}

// ForS3 calls Loader.ForS3 on the DefaultLoader instance.
func ForS3() S3Config {
	return DefaultLoader.ForS3()
}

// NewS3Client creates a new S3 client using the profile from ForS3.
//
// The client is cached so subsequent calls return the same instance.
func (l *Loader) NewS3Client(ctx context.Context, optFns ...func(*s3.Options)) (*s3.Client, error) {
	if c, ok := l.s3clientCache.Load("s3"); ok {
		return c.(*s3.Client), nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithSharedConfigProfile(l.ForS3().AWSProfile))
	if err != nil {
		return nil, err
	}

	c := s3.NewFromConfig(cfg, optFns...)
	l.s3clientCache.Store("s3", c)
	return c, nil
}

// NewS3Client calls Loader.NewS3Client on the DefaultLoader instance.
func NewS3Client(ctx context.Context, optFns ...func(*s3.Options)) (*s3.Client, error) {
	return DefaultLoader.NewS3Client(ctx, optFns...)
}
