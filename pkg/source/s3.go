package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/xptkit/internal/logger"
	"github.com/marmos91/xptkit/internal/telemetry"
)

// S3Config configures the S3 client used for s3:// inputs.
type S3Config struct {
	// Region is the AWS region (optional, uses SDK default if empty).
	Region string `mapstructure:"region" yaml:"region,omitempty"`

	// Endpoint is the S3 endpoint URL, for S3-compatible services.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty" validate:"omitempty,url"`

	// ForcePathStyle forces path-style addressing (required for Localstack/MinIO).
	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style"`

	// AccessKeyID and SecretAccessKey set static credentials. When empty the
	// SDK default chain (env, shared config, instance role) is used.
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty" json:"-"`
}

// S3Metrics receives S3 observations. A nil S3Metrics disables collection.
type S3Metrics interface {
	ObserveOperation(operation string, duration time.Duration, err error)
	RecordBytes(bytes int64)
}

// S3API is the subset of the S3 client the source needs.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client builds an S3 client from cfg.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}

func getObject(ctx context.Context, client S3API, m S3Metrics, bucket, key string) (io.ReadCloser, error) {
	ctx, span := telemetry.StartS3Span(ctx, telemetry.SpanS3Get, bucket, key)
	defer span.End()

	start := time.Now()
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if m != nil {
		m.ObserveOperation("GetObject", time.Since(start), err)
	}
	if err != nil {
		telemetry.RecordError(ctx, err)
		if isNotFound(err) {
			return nil, fmt.Errorf("s3 get object: %w", fs.ErrNotExist)
		}
		return nil, fmt.Errorf("s3 get object: %w", err)
	}

	logger.DebugCtx(ctx, "Opened S3 object", logger.KeyBucket, bucket, logger.KeyKey, key,
		logger.KeySize, aws.ToInt64(out.ContentLength))
	return &objectBody{body: out.Body, metrics: m}, nil
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	var noBucket *types.NoSuchBucket
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &noBucket) || errors.As(err, &notFound)
}

// objectBody reports bytes read to the S3 metrics.
type objectBody struct {
	body    io.ReadCloser
	metrics S3Metrics
}

func (b *objectBody) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)
	if n > 0 && b.metrics != nil {
		b.metrics.RecordBytes(int64(n))
	}
	return n, err
}

func (b *objectBody) Close() error {
	return b.body.Close()
}
