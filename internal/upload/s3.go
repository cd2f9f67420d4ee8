package upload

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// S3Opts configures an S3Backend.
type S3Opts struct {
	Endpoint        string // host[:port], no scheme
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	CDNHostname     string
}

// S3Backend uploads to an S3-compatible bucket.
type S3Backend struct {
	client  *minio.Client
	bucket  string
	cdnHost string
}

// NewS3Backend creates an S3 storage backend.
func NewS3Backend(opts S3Opts) (*S3Backend, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint cannot be empty")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket cannot be empty")
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	return &S3Backend{client: client, bucket: opts.Bucket, cdnHost: opts.CDNHostname}, nil
}

// Upload stores the body under key in a single PutObject call.
func (s *S3Backend) Upload(ctx context.Context, req Request) (*Result, error) {
	contentType := req.ContentType
	if contentType == "" {
		contentType = octetStream
	}

	info, err := s.client.PutObject(ctx, s.bucket, req.Key, bytes.NewReader(req.Body), int64(len(req.Body)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.StatusCode != 0 {
			msg := resp.Message
			if msg == "" {
				msg = resp.Code
			}
			return nil, &TransferError{StatusCode: resp.StatusCode, Message: msg}
		}
		return nil, fmt.Errorf("upload request failed: %w", err)
	}

	log.Debug().
		Str("key", req.Key).
		Str("bucket", s.bucket).
		Int64("bytes", info.Size).
		Msg("s3 upload complete")

	return &Result{Key: req.Key, URL: s.PublicURL(req.Key)}, nil
}

// PublicURL returns the CDN URL for key.
func (s *S3Backend) PublicURL(key string) string {
	return cdnURL(s.cdnHost, key)
}

// Ping checks that the bucket exists and the credentials can see it.
func (s *S3Backend) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}
