package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kirillkom/docsort/internal/core/domain"
	"github.com/kirillkom/docsort/internal/infrastructure/resilience"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Storage keeps uploaded documents in an S3-compatible bucket.
type Storage struct {
	client   *minio.Client
	bucket   string
	executor *resilience.Executor
}

func New(ctx context.Context, cfg Config, executor *resilience.Executor) (*Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("minio bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	s := &Storage{client: client, bucket: cfg.Bucket, executor: executor}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// Save streams data with an unknown length, so the client uploads in parts.
// It is not retried because the reader cannot be rewound.
func (s *Storage) Save(ctx context.Context, key string, data io.Reader) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, data, -1, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return resilience.AsTemporary("minio put", fmt.Errorf("put object: %w", err), classifyMinioError)
	}
	return nil
}

func (s *Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := resilience.Call(ctx, s.executor, "minio.get", func(ctx context.Context) (*minio.Object, error) {
		obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
		if err != nil {
			return nil, err
		}
		// GetObject is lazy; Stat surfaces a missing key before the caller reads.
		if _, err := obj.Stat(); err != nil {
			_ = obj.Close()
			return nil, mapMinioError(key, err)
		}
		return obj, nil
	}, classifyMinioError)
	if err != nil {
		return nil, resilience.AsTemporary("minio get", fmt.Errorf("get object: %w", err), classifyMinioError)
	}
	return obj, nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	err := s.executor.Execute(ctx, "minio.remove", func(ctx context.Context) error {
		return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	}, classifyMinioError)
	if err != nil {
		return resilience.AsTemporary("minio remove", fmt.Errorf("remove object: %w", err), classifyMinioError)
	}
	return nil
}

func errorResponse(err error) minio.ErrorResponse {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp
	}
	return minio.ToErrorResponse(err)
}

func mapMinioError(key string, err error) error {
	switch errorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return domain.WrapError(domain.ErrDocumentNotFound, "open object", fmt.Errorf("%s: %w", key, err))
	}
	return err
}

func classifyMinioError(err error) resilience.ErrorClassification {
	resp := errorResponse(err)
	switch {
	case resp.StatusCode >= 500, resp.Code == "SlowDown", resp.Code == "RequestTimeout":
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	case resp.StatusCode >= 400:
		return resilience.ErrorClassification{}
	}
	return resilience.ClassifyTransient(err)
}
