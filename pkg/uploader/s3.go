package uploader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrymomot/polaris/pkg/uploadqueue"
)

// S3Client defines the S3 operations used by S3Uploader.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Config contains configuration for the S3 backend.
type S3Config struct {
	Bucket         string `env:"STORAGE_S3_BUCKET"`
	Region         string `env:"STORAGE_S3_REGION" envDefault:"us-east-1"`
	AccessKeyID    string `env:"STORAGE_S3_ACCESS_KEY_ID"`
	SecretKey      string `env:"STORAGE_S3_SECRET_KEY"`
	Endpoint       string `env:"STORAGE_S3_ENDPOINT"`         // Optional: for S3-compatible services
	Prefix         string `env:"STORAGE_S3_PREFIX"`           // Key prefix for every object
	ForcePathStyle bool   `env:"STORAGE_S3_FORCE_PATH_STYLE"` // For S3-compatible services like MinIO
}

// S3Uploader uploads payloads as S3 objects, reporting progress as the body is read.
// It is safe for concurrent use.
type S3Uploader struct {
	client        S3Client
	bucket        string
	prefix        string
	uploadTimeout time.Duration
	keyFunc       KeyFunc
}

// S3Option defines a function that configures S3Uploader.
type S3Option func(*s3Options)

type s3Options struct {
	httpClient      *http.Client
	s3Client        S3Client
	s3ConfigOptions []func(*config.LoadOptions) error
	s3ClientOptions []func(*s3.Options)
	uploadTimeout   time.Duration
	keyFunc         KeyFunc
}

// WithS3Client sets a pre-configured S3 client. Useful for testing with mocks.
func WithS3Client(client S3Client) S3Option {
	return func(o *s3Options) {
		o.s3Client = client
	}
}

// WithHTTPClient sets a custom HTTP client for S3 requests.
func WithHTTPClient(client *http.Client) S3Option {
	return func(o *s3Options) {
		o.httpClient = client
	}
}

// WithS3ConfigOption adds a custom AWS config option.
func WithS3ConfigOption(option func(*config.LoadOptions) error) S3Option {
	return func(o *s3Options) {
		o.s3ConfigOptions = append(o.s3ConfigOptions, option)
	}
}

// WithS3ClientOption adds a custom S3 client option.
func WithS3ClientOption(option func(*s3.Options)) S3Option {
	return func(o *s3Options) {
		o.s3ClientOptions = append(o.s3ClientOptions, option)
	}
}

// WithS3UploadTimeout bounds each attempt. Zero leaves only the caller's deadline.
func WithS3UploadTimeout(timeout time.Duration) S3Option {
	return func(o *s3Options) {
		o.uploadTimeout = timeout
	}
}

// WithS3KeyFunc overrides how object keys are derived from payloads.
func WithS3KeyFunc(fn KeyFunc) S3Option {
	return func(o *s3Options) {
		if fn != nil {
			o.keyFunc = fn
		}
	}
}

// NewS3Uploader creates an uploader for cfg.Bucket.
func NewS3Uploader(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Uploader, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	options := &s3Options{keyFunc: DefaultKey}
	for _, opt := range opts {
		opt(options)
	}

	client := options.s3Client
	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions,
				config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretKey,
					"",
				)),
			)
		}
		if options.httpClient != nil {
			awsOptions = append(awsOptions, config.WithHTTPClient(options.httpClient))
		}
		awsOptions = append(awsOptions, options.s3ConfigOptions...)

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToLoadConfig, err)
		}

		client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.ForcePathStyle
			for _, opt := range options.s3ClientOptions {
				opt(o)
			}
		})
	}

	return &S3Uploader{
		client:        client,
		bucket:        cfg.Bucket,
		prefix:        strings.Trim(cfg.Prefix, "/"),
		uploadTimeout: options.uploadTimeout,
		keyFunc:       options.keyFunc,
	}, nil
}

// Upload streams the payload to S3 with PutObject.
func (s *S3Uploader) Upload(ctx context.Context, p uploadqueue.Payload, onProgress uploadqueue.ProgressFunc) error {
	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}

	key, err := s.objectKey(p)
	if err != nil {
		return err
	}

	src, err := openSource(p)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          newProgressReader(src, p.Size(), onProgress),
		ContentLength: aws.Int64(p.Size()),
		ContentType:   aws.String(contentType(p)),
	}, unsignedPayload)
	if err != nil {
		return classifyS3Error(err, "upload file")
	}

	return nil
}

// Healthcheck verifies the bucket is reachable with the configured credentials.
func (s *S3Uploader) Healthcheck(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return classifyS3Error(err, "check bucket")
	}
	return nil
}

func (s *S3Uploader) objectKey(p uploadqueue.Payload) (string, error) {
	key := strings.TrimPrefix(s.keyFunc(p), "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, key)
	}
	if s.prefix != "" {
		key = path.Join(s.prefix, key)
	}
	return key, nil
}

// unsignedPayload keeps the SDK from hashing the whole body before sending it,
// which would read the payload twice and report progress ahead of the transfer.
func unsignedPayload(o *s3.Options) {
	o.APIOptions = append(o.APIOptions, v4.SwapComputePayloadSHA256ForUnsignedPayloadMiddleware)
}

// classifyS3Error converts S3 errors to package errors.
func classifyS3Error(err error, operation string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s operation", ErrOperationTimeout, operation)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s operation", ErrOperationCanceled, operation)
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return ErrBucketNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch code {
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %s operation", ErrAccessDenied, operation)
		case "RequestTimeout":
			return fmt.Errorf("%w: %s operation", ErrRequestTimeout, operation)
		case "SlowDown", "ServiceUnavailable":
			return fmt.Errorf("%w: %s operation", ErrServiceUnavailable, operation)
		case "NoSuchBucket", "NotFound":
			return ErrBucketNotFound
		default:
			return fmt.Errorf("%s operation failed (code: %s): %w", operation, code, err)
		}
	}

	return fmt.Errorf("%s operation failed: %w", operation, err)
}
