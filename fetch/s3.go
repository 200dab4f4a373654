package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Fetcher reads objects addressed as s3://bucket/key.
type S3Fetcher struct {
	client   *s3.S3
	region   string
	maxBytes int64
}

// NewS3Fetcher creates a client using the default credential chain; public
// buckets work without credentials.
func NewS3Fetcher(region, endpoint string, maxBytes int64) (*S3Fetcher, error) {
	if region == "" {
		region = "us-east-1"
	}

	cfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Fetcher{
		client:   s3.New(sess),
		region:   region,
		maxBytes: maxBytes,
	}, nil
}

func (b *S3Fetcher) Name() string { return fmt.Sprintf("s3-%s", b.region) }

func (b *S3Fetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: expected s3://bucket/key", ErrInvalidURI)
	}

	result, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, fmt.Errorf("object %s/%s not found", bucket, key)
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	if result.ContentLength != nil && *result.ContentLength > b.maxBytes {
		return nil, fmt.Errorf("%w (%d bytes announced)", ErrContentTooLarge, *result.ContentLength)
	}

	data, err := readLimited(result.Body, b.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}
