// Package cloud reads input spreadsheets from and writes match results to S3.
package cloud

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Scheme = "s3://"

// S3Client wraps the S3 operations used for input download and result upload.
type S3Client struct {
	client *s3.Client
	bucket string
}

// NewS3Client creates an S3 client for the given bucket. An empty region
// falls back to the default AWS resolution chain.
func NewS3Client(ctx context.Context, bucket, region string) (*S3Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &S3Client{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// IsS3URL reports whether path names an S3 object.
func IsS3URL(path string) bool {
	return strings.HasPrefix(path, s3Scheme)
}

// ParseS3URL splits s3://bucket/key into its bucket and key.
func ParseS3URL(raw string) (bucket, key string, err error) {
	if !IsS3URL(raw) {
		return "", "", fmt.Errorf("not an s3 URL: %q", raw)
	}
	rest := strings.TrimPrefix(raw, s3Scheme)
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3 URL %q has no bucket", raw)
	}
	if key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("s3 URL %q has no object key", raw)
	}
	return bucket, key, nil
}

// Open streams an object. The caller closes the returned reader.
func (c *S3Client) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting S3 object s3://%s/%s: %w", c.bucket, key, err)
	}
	return resp.Body, nil
}

// UploadFile uploads a local file under key.
func (c *S3Client) UploadFile(ctx context.Context, key, path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("putting S3 object s3://%s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// OpenURL opens an s3:// URL using a client for its bucket.
func OpenURL(ctx context.Context, rawURL, region string) (io.ReadCloser, error) {
	bucket, key, err := ParseS3URL(rawURL)
	if err != nil {
		return nil, err
	}
	client, err := NewS3Client(ctx, bucket, region)
	if err != nil {
		return nil, err
	}
	return client.Open(ctx, key)
}

// UploadURL uploads a local file to an s3:// URL.
func UploadURL(ctx context.Context, rawURL, region, path, contentType string) error {
	bucket, key, err := ParseS3URL(rawURL)
	if err != nil {
		return err
	}
	client, err := NewS3Client(ctx, bucket, region)
	if err != nil {
		return err
	}
	return client.UploadFile(ctx, key, path, contentType)
}
