// Package storage provides the document stores behind client export folders.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/shared"
	infraconfig "github.com/advisory/backoffice/internal/infrastructure/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// S3API is the subset of the S3 client the store uses
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3DocumentStore keeps client folders as key prefixes in a bucket.
// It works with any S3-compatible backend (AWS S3, MinIO, etc.)
type S3DocumentStore struct {
	client S3API
	bucket string
	prefix string
	logger *zap.Logger
}

// S3DocumentStoreOption is a functional option for configuring S3DocumentStore
type S3DocumentStoreOption func(*S3DocumentStore)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) S3DocumentStoreOption {
	return func(s *S3DocumentStore) {
		s.logger = logger
	}
}

// WithClient replaces the SDK client, e.g. with a fake in tests
func WithClient(client S3API) S3DocumentStoreOption {
	return func(s *S3DocumentStore) {
		s.client = client
	}
}

// NewS3DocumentStore creates a store from configuration. Static credentials
// are used when given; otherwise the default AWS credential chain applies.
func NewS3DocumentStore(cfg *infraconfig.S3Config, opts ...S3DocumentStoreOption) (*S3DocumentStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	store := &S3DocumentStore{
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	if store.client != nil {
		return store, nil
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint != "" {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
	}

	store.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return store, nil
}

// Read downloads an object
func (s *S3DocumentStore) Read(ctx context.Context, folder, name string) ([]byte, error) {
	key, err := s.key(folder, name)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, shared.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// Write uploads an object, replacing any previous version
func (s *S3DocumentStore) Write(ctx context.Context, folder, name string, data []byte) error {
	key, err := s.key(folder, name)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeFor(name)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	s.logger.Debug("Document uploaded", zap.String("key", key), zap.Int("size", len(data)))
	return nil
}

// Exists checks if an object exists
func (s *S3DocumentStore) Exists(ctx context.Context, folder, name string) (bool, error) {
	key, err := s.key(folder, name)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

// Delete removes an object
func (s *S3DocumentStore) Delete(ctx context.Context, folder, name string) error {
	key, err := s.key(folder, name)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// Bucket returns the bucket name
func (s *S3DocumentStore) Bucket() string {
	return s.bucket
}

func (s *S3DocumentStore) key(folder, name string) (string, error) {
	if name == "" || containsDotDot(folder) || containsDotDot(name) {
		return "", shared.NewDomainError("INVALID_INPUT", "invalid document path")
	}
	return path.Join(s.prefix, folder, name), nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return true
	}
	// Some S3-compatible services report it only in the message
	return strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchKey")
}

func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".html":
		return "text/html; charset=utf-8"
	}
	return "application/octet-stream"
}

var _ appshared.DocumentStore = (*S3DocumentStore)(nil)
