// Package upload publishes converted corpus files to S3-compatible storage.
package upload

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/FocuswithJustin/bsfbeios/core/errors"
	"github.com/FocuswithJustin/bsfbeios/internal/logging"
	"github.com/FocuswithJustin/bsfbeios/internal/output"
)

// ObjectPutter is the subset of *s3.Client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config selects the S3 endpoint.
type Config struct {
	Region   string
	Endpoint string // For MinIO/testing; enables path-style addressing
}

// NewS3Client builds a client from the default AWS credential chain.
func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	var opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, opts...), nil
}

// S3Uploader puts files under a bucket prefix.
type S3Uploader struct {
	client ObjectPutter
	bucket string
	prefix string
	runID  string
}

// NewS3Uploader returns an uploader for bucket. Keys are prefix/<basename>.
func NewS3Uploader(client ObjectPutter, bucket, prefix, runID string) *S3Uploader {
	return &S3Uploader{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		runID:  runID,
	}
}

// Key returns the object key for a local file.
func (u *S3Uploader) Key(file string) string {
	if u.prefix == "" {
		return filepath.Base(file)
	}
	return path.Join(u.prefix, filepath.Base(file))
}

// Upload puts every file and returns the keys written, stopping at the
// first failure.
func (u *S3Uploader) Upload(ctx context.Context, files []output.WrittenFile) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return keys, errors.NewIO("read", f.Path, err)
		}

		key := u.Key(f.Path)
		_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(u.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType(f.Path)),
			Metadata: map[string]string{
				"source": "bsfbeios",
				"run-id": u.runID,
				"blake3": f.Digest,
			},
		})
		if err != nil {
			return keys, errors.Wrapf(err, "failed to upload s3://%s/%s", u.bucket, key)
		}
		logging.InfoContext(ctx, "file_uploaded", "bucket", u.bucket, "key", key, "size_bytes", f.Size)
		keys = append(keys, key)
	}
	return keys, nil
}

func contentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".xz"):
		return "application/x-xz"
	case strings.HasSuffix(name, ".gz"):
		return "application/gzip"
	}
	return "text/plain; charset=utf-8"
}
