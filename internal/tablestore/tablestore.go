// Package tablestore distributes completed table files across a cluster
// via S3, the supplemental feature spec.md's original_source carries for
// sharing generated tables between generation and lookup nodes.
package tablestore

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds the S3 connection settings for table distribution.
type Config struct {
	Endpoint        string
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	UsePathStyle    bool
}

// Store uploads and downloads table files to/from an S3-compatible bucket
// so a generator node can publish a finished table and a lookup node can
// fetch it without sharing a filesystem.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// New builds a Store from cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("tablestore: loading AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}

	return &Store{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (s *Store) key(name string) string {
	if s.prefix != "" {
		return s.prefix + "/" + name
	}
	return name
}

// UploadTable publishes the table file at localPath under its own base
// name, so lookup nodes can list and fetch it by filename.
func (s *Store) UploadTable(ctx context.Context, localPath, name string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("tablestore: opening %q: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("tablestore: statting %q: %w", localPath, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return fmt.Errorf("tablestore: uploading %q: %w", name, err)
	}
	return nil
}

// DownloadTable fetches a table by name into localPath.
func (s *Store) DownloadTable(ctx context.Context, name, localPath string) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return fmt.Errorf("tablestore: downloading %q: %w", name, err)
	}
	defer out.Body.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("tablestore: creating %q: %w", localPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, out.Body); err != nil {
		return fmt.Errorf("tablestore: writing %q: %w", localPath, err)
	}
	return nil
}

// ListTables returns every table name published under the configured
// prefix.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("tablestore: listing: %w", err)
	}
	names := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		names = append(names, aws.ToString(obj.Key))
	}
	return names, nil
}
