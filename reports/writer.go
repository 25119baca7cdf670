package reports

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectWriter stores one named blob
type ObjectWriter interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
}

type S3Writer struct {
	client *s3.Client
	bucket string
}

func NewS3Writer(ctx context.Context, region, bucket string) (*S3Writer, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is not configured")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &S3Writer{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

func (w *S3Writer) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("unable to upload %s to S3: %w", key, err)
	}
	return nil
}

// DirWriter writes objects below a local directory, for runs without a bucket
type DirWriter struct {
	Root string
}

func (w DirWriter) PutObject(_ context.Context, key string, body []byte, _ string) error {
	path := filepath.Join(w.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o644)
}
