package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/daap14/headless/internal/config"
)

// S3Presigner signs browser POST uploads against an S3-compatible bucket.
type S3Presigner struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	expiry  time.Duration
}

// NewS3Presigner builds a client for the configured bucket. Static credentials
// are used when both keys are set; otherwise the default AWS chain applies.
func NewS3Presigner(ctx context.Context, cfg config.S3Config, expiry time.Duration) (*S3Presigner, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if expiry <= 0 {
		expiry = time.Minute
	}

	optFns := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &S3Presigner{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		expiry:  expiry,
	}, nil
}

// PresignPost returns the URL and form fields of a POST policy restricted to
// the given key, content type and size range.
func (p *S3Presigner) PresignPost(ctx context.Context, in PostInput) (*PresignedPost, error) {
	req, err := p.presign.PresignPostObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(in.Key),
		ContentType: aws.String(in.ContentType),
	}, func(o *s3.PresignPostOptions) {
		o.Expires = p.expiry
		o.Conditions = []interface{}{
			[]interface{}{"content-length-range", in.MinSize, in.MaxSize},
			map[string]string{"Content-Type": in.ContentType},
		}
	})
	if err != nil {
		return nil, fmt.Errorf("presign post for %s: %w", in.Key, err)
	}

	fields := make(map[string]string, len(req.Values)+1)
	for k, v := range req.Values {
		fields[k] = v
	}
	if _, ok := fields["Content-Type"]; !ok {
		fields["Content-Type"] = in.ContentType
	}

	return &PresignedPost{URL: req.URL, Fields: fields}, nil
}

// CheckBucket verifies the bucket is reachable with the configured credentials.
func (p *S3Presigner) CheckBucket(ctx context.Context) error {
	if _, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.bucket)}); err != nil {
		return fmt.Errorf("head bucket %s: %w", p.bucket, err)
	}
	return nil
}
