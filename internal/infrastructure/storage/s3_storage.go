// Package storage serves product photos kept in S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultEndpoint = "http://localhost:9000"
	defaultRegion   = "us-east-1"
	defaultURLTTL   = 15 * time.Minute
)

// PhotoBucket hands out time-limited download links for objects in one
// bucket. Works against AWS S3 and MinIO alike.
type PhotoBucket struct {
	api    *s3.Client
	signer *s3.PresignClient
	name   string
	urlTTL time.Duration
	logger *zap.Logger
}

// Option tweaks a PhotoBucket at construction
type Option func(*PhotoBucket)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *PhotoBucket) { b.logger = logger }
}

// WithURLTTL overrides how long presigned links stay valid
func WithURLTTL(d time.Duration) Option {
	return func(b *PhotoBucket) { b.urlTTL = d }
}

// NewPhotoBucket builds an S3 client for cfg. No request is made.
func NewPhotoBucket(cfg *config.StorageConfig, opts ...Option) (*PhotoBucket, error) {
	if err := checkStorageConfig(cfg); err != nil {
		return nil, err
	}
	endpoint, err := resolveEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = cfg.UsePathStyle
	})

	b := &PhotoBucket{
		api:    api,
		signer: s3.NewPresignClient(api),
		name:   cfg.Bucket,
		urlTTL: cfg.PresignExpiration,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.urlTTL <= 0 {
		b.urlTTL = defaultURLTTL
	}
	return b, nil
}

func checkStorageConfig(cfg *config.StorageConfig) error {
	switch {
	case cfg == nil:
		return errors.New("storage configuration is required")
	case cfg.Bucket == "":
		return errors.New("storage bucket is required")
	case cfg.AccessKey == "":
		return errors.New("storage access key is required")
	case cfg.SecretKey == "":
		return errors.New("storage secret key is required")
	}
	return nil
}

// resolveEndpoint adds a scheme to bare host:port endpoints
func resolveEndpoint(raw string, useSSL bool) (string, error) {
	if raw == "" {
		return defaultEndpoint, nil
	}
	if !strings.Contains(raw, "://") {
		scheme := "http://"
		if useSSL {
			scheme = "https://"
		}
		raw = scheme + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid storage endpoint %q", raw)
	}
	return raw, nil
}

// EnsureBucket creates the bucket when HeadBucket says it is missing.
func (b *PhotoBucket) EnsureBucket(ctx context.Context) error {
	err := b.head(ctx)
	if err == nil {
		return nil
	}
	if !bucketMissing(err) {
		return fmt.Errorf("check bucket %s: %w", b.name, err)
	}

	b.logger.Info("Creating photo bucket", zap.String("bucket", b.name))
	if _, err := b.api.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(b.name)}); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", b.name, err)
	}
	return nil
}

// Ping reports whether the bucket is reachable
func (b *PhotoBucket) Ping(ctx context.Context) error {
	if err := b.head(ctx); err != nil {
		return fmt.Errorf("bucket %s unreachable: %w", b.name, err)
	}
	return nil
}

// PresignPhoto signs a GET for key. Signing is local.
func (b *PhotoBucket) PresignPhoto(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	req, err := b.signer.PresignGetObject(ctx,
		&s3.GetObjectInput{Bucket: aws.String(b.name), Key: aws.String(key)},
		s3.WithPresignExpires(b.urlTTL),
	)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

// Bucket returns the bucket name
func (b *PhotoBucket) Bucket() string {
	return b.name
}

func (b *PhotoBucket) head(ctx context.Context) error {
	_, err := b.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.name)})
	return err
}

func bucketMissing(err error) bool {
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	return errors.As(err, &notFound) || errors.As(err, &noSuchBucket)
}

var _ PhotoSigner = (*PhotoBucket)(nil)
