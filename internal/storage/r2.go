package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectStore abstracts the object storage operations the handlers need so
// tests can substitute an in-memory fake.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]string, error)
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	KeyFromURL(url string) (string, bool)
}

// R2Options configures the Cloudflare R2 client. R2 speaks the S3 API with a
// per-account endpoint and the literal region "auto".
type R2Options struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicDomain    string
}

// R2Store implements ObjectStore against a Cloudflare R2 bucket.
type R2Store struct {
	client       *s3.Client
	bucket       string
	publicDomain string
}

// NewR2Store constructs the S3 client for the configured R2 account.
func NewR2Store(ctx context.Context, opts R2Options) (*R2Store, error) {
	if opts.AccountID == "" || opts.Bucket == "" {
		return nil, fmt.Errorf("r2: account id and bucket are required")
	}
	if opts.PublicDomain == "" {
		return nil, fmt.Errorf("r2: public domain is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("r2: load aws config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", opts.AccountID)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &R2Store{
		client:       client,
		bucket:       opts.Bucket,
		publicDomain: strings.TrimRight(opts.PublicDomain, "/"),
	}, nil
}

// Put writes one object, overwriting any existing object at the same key.
func (s *R2Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("r2: put %s: %w", key, err)
	}
	return nil
}

// List returns all object keys under the prefix, following pagination. Order
// is the bucket's listing order (lexicographic).
func (s *R2Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("r2: list %s: %w", prefix, err)
		}
		for _, obj := range out.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}
	return keys, nil
}

// DeletePrefix removes every object under the prefix in batches and returns
// the number of deleted objects.
func (s *R2Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := s.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for start := 0; start < len(keys); start += 1000 {
		end := start + 1000
		if end > len(keys) {
			end = len(keys)
		}
		batch := make([]types.ObjectIdentifier, 0, end-start)
		for _, key := range keys[start:end] {
			batch = append(batch, types.ObjectIdentifier{Key: aws.String(key)})
		}
		_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: batch, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return deleted, fmt.Errorf("r2: delete prefix %s: %w", prefix, err)
		}
		deleted += len(batch)
	}
	return deleted, nil
}

// Delete removes a single object.
func (s *R2Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("r2: delete %s: %w", key, err)
	}
	return nil
}

// PublicURL maps an object key to its public URL on the configured domain.
func (s *R2Store) PublicURL(key string) string {
	return s.publicDomain + "/" + strings.TrimLeft(key, "/")
}

// KeyFromURL extracts the object key from a URL on the public domain. The
// second return is false for foreign URLs.
func (s *R2Store) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, s.publicDomain+"/") {
		return "", false
	}
	return strings.TrimPrefix(url, s.publicDomain+"/"), true
}

var _ ObjectStore = (*R2Store)(nil)
