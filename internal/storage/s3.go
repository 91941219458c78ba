package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// S3Config holds settings for an S3-compatible object store.
type S3Config struct {
	// Endpoint overrides the AWS endpoint, for MinIO and other
	// S3-compatible stores. Empty means AWS.
	Endpoint string

	Region    string
	Bucket    string
	AccessKey string
	SecretKey string

	// UsePathStyle forces path-style addressing, required by most
	// self-hosted stores.
	UsePathStyle bool
}

// S3 stores photos in an S3-compatible bucket.
type S3 struct {
	client *s3.Client
	bucket string
	logger zerolog.Logger
}

// NewS3 creates an S3 backend.
func NewS3(ctx context.Context, cfg S3Config, logger zerolog.Logger) (*S3, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With().Str("component", "storage").Str("backend", "s3").Logger(),
	}, nil
}

// Store uploads the content under the filename key.
func (s *S3) Store(ctx context.Context, filename string, reader io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(filename),
		Body:          reader,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}

	s.logger.Debug().Str("filename", filename).Int64("size", size).Msg("stored object")
	return nil
}

// Retrieve opens a stored object.
func (s *S3) Retrieve(ctx context.Context, filename string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(filename),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return out.Body, nil
}

// Delete removes a stored object.
func (s *S3) Delete(ctx context.Context, filename string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(filename),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Exists checks whether an object is stored.
func (s *S3) Exists(ctx context.Context, filename string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(filename),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head object: %w", err)
	}
	return true, nil
}

// Ensure S3 implements Backend.
var _ Backend = (*S3)(nil)
