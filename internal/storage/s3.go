package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bechidu/partner-sync-ai/internal/ingest"
	"github.com/bechidu/partner-sync-ai/internal/pkg/logger"
	"github.com/bechidu/partner-sync-ai/internal/transport"
)

// s3API is the slice of the S3 client the store uses; tests stub it.
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store reads partner sample drops from a shared bucket.
type S3Store struct {
	client s3API
	bucket string
}

// NewS3Store builds a store over the named bucket. An empty profile uses
// the default credential chain (IAM role on ECS).
func NewS3Store(ctx context.Context, bucket, region, profile string) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Store{client: s3.NewFromConfig(awsCfg), bucket: bucket}, nil
}

// List returns keys of sample drops not yet moved under processed/. Empty
// objects are skipped.
func (s *S3Store) List(ctx context.Context) ([]string, error) {
	var keys []string
	var continuation *string
	for {
		page, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, fmt.Errorf("list sample drops: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if obj.Size == nil || *obj.Size == 0 {
				continue
			}
			if strings.HasPrefix(key, processedPrefix) {
				continue
			}
			keys = append(keys, key)
		}
		if page.IsTruncated == nil || !*page.IsTruncated {
			break
		}
		continuation = page.NextContinuationToken
	}
	return keys, nil
}

// Fetch reads one sample drop.
func (s *S3Store) Fetch(ctx context.Context, key string) (*transport.RawSample, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: s3://%s/%s", ingest.ErrMissingInput, s.bucket, key)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read sample drop %s: %w", key, err)
	}
	return &transport.RawSample{
		Bytes:     b,
		Source:    fmt.Sprintf("s3://%s/%s", s.bucket, key),
		Transport: ingest.TransportFile,
	}, nil
}

// Archive copies the drop under processed/ and deletes the original. A
// failed delete leaves the object in both places, which the processed/
// skip in List makes harmless.
func (s *S3Store) Archive(ctx context.Context, key string) error {
	dest := processedPrefix + path.Base(key)
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		CopySource: aws.String(s.bucket + "/" + key),
		Key:        aws.String(dest),
	})
	if err != nil {
		return fmt.Errorf("archive copy %s: %w", key, err)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		logger.Warn("archive delete failed, original kept", "key", key, "error", err)
	}
	return nil
}
