package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/iliyamo/realestate-classifieds/internal/config"
)

// S3Store talks to any S3-compatible bucket (AWS, R2, MinIO, Supabase).
type S3Store struct {
	prefixMatcher
	client   *s3.S3
	uploader *s3manager.Uploader
	bucket   string
}

func NewS3Store(cfg config.StorageConfig) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required for s3 storage")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required for s3 storage")
	}
	awsConfig := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 session: %w", err)
	}
	return &S3Store{
		prefixMatcher: newPrefixMatcher(cfg.BaseURL),
		client:        s3.New(sess),
		uploader:      s3manager.NewUploader(sess),
		bucket:        cfg.Bucket,
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return s.publicURL(key), nil
}

// Remove deletes keys in batches of 1000, the DeleteObjects maximum.
func (s *S3Store) Remove(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += 1000 {
		end := start + 1000
		if end > len(keys) {
			end = len(keys)
		}
		objs := make([]*s3.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			objs = append(objs, &s3.ObjectIdentifier{Key: aws.String(k)})
		}
		out, err := s.client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3.Delete{Objects: objs, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("failed to delete objects: %w", err)
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return fmt.Errorf("failed to delete %d objects, first %s: %s",
				len(out.Errors), aws.StringValue(e.Key), aws.StringValue(e.Message))
		}
	}
	return nil
}
