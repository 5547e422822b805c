// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0

package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/absmach/supermq/pkg/errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/docker/go-units"
	"github.com/ultravioletrs/taskimage/internal"
)

var _ Downloader = (*S3)(nil)

// S3Client is the part of the S3 API used by S3.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds S3-specific configuration.
type S3Config struct {
	// Bucket holds the task artifacts.
	Bucket string `env:"BUCKET"            envDefault:""`
	// Prefix is prepended to "<taskID>/<artifactPath>" to form object keys.
	Prefix string `env:"PREFIX"            envDefault:""`
	// Region is the AWS region (e.g., "us-east-1").
	Region string `env:"REGION"            envDefault:""`
	// Endpoint is the S3 endpoint URL (for S3-compatible services like MinIO).
	Endpoint string `env:"ENDPOINT"          envDefault:""`
	// AccessKeyID is the AWS access key ID.
	AccessKeyID string `env:"ACCESS_KEY_ID"     envDefault:""`
	// SecretAccessKey is the AWS secret access key.
	SecretAccessKey string `env:"SECRET_ACCESS_KEY" envDefault:""`
	// UsePathStyle forces path-style addressing (required for MinIO).
	UsePathStyle bool `env:"USE_PATH_STYLE"    envDefault:"false"`
}

// S3 downloads artifacts stored in an S3 bucket.
type S3 struct {
	client S3Client
	config S3Config
	logger *slog.Logger
}

// S3Option is a functional option for configuring S3.
type S3Option func(*S3)

// WithS3Logger sets a custom logger for the S3 downloader.
func WithS3Logger(logger *slog.Logger) S3Option {
	return func(s *S3) {
		s.logger = logger
	}
}

// WithS3Client replaces the S3 API client.
func WithS3Client(c S3Client) S3Option {
	return func(s *S3) {
		s.client = c
	}
}

// NewS3 creates an S3 downloader. Without WithS3Client the client is built
// from cfg and the default AWS credential chain.
func NewS3(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errors.Wrap(ErrS3DownloadFailed, fmt.Errorf("bucket is required"))
	}

	s := &S3{
		config: cfg,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.client != nil {
		return s, nil
	}

	var awsCfgOpts []func(*awsconfig.LoadOptions) error

	if cfg.Region != "" {
		awsCfgOpts = append(awsCfgOpts, awsconfig.WithRegion(cfg.Region))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfgOpts = append(awsCfgOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsCfgOpts...)
	if err != nil {
		return nil, errors.Wrap(ErrS3DownloadFailed, err)
	}

	s3Opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.UsePathStyle = cfg.UsePathStyle
		},
	}

	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	s.client = s3.NewFromConfig(awsCfg, s3Opts...)

	return s, nil
}

// Key returns the object key of an artifact.
func (s *S3) Key(taskID, artifactPath string) (string, error) {
	return objectKey(s.config.Prefix, taskID, artifactPath)
}

// Download streams the object body to dest. Transport retries are left to
// the SDK retryer.
func (s *S3) Download(ctx context.Context, out io.Writer, taskID, artifactPath, dest string) error {
	key, err := s.Key(taskID, artifactPath)
	if err != nil {
		return err
	}

	fmt.Fprint(out, internal.FmtLog("Downloading artifact \"%s\" from task ID: %s.", artifactPath, taskID))

	start := time.Now()
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.Wrap(ErrS3DownloadFailed, err)
	}
	defer result.Body.Close()

	size, err := writeFile(dest, result.Body)
	if err != nil {
		return errors.Wrap(ErrS3DownloadFailed, err)
	}

	s.logger.Debug(fmt.Sprintf("downloaded s3://%s/%s to %s", s.config.Bucket, key, dest))
	fmt.Fprint(out, internal.FmtLog("Downloaded artifact successfully. Downloaded %s in %s.", units.HumanSize(float64(size)), time.Since(start).Round(time.Millisecond)))

	return nil
}
