// Package storage provides presigned-URL access to the media bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	infraconfig "github.com/lovance/backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const presignExpiry = 5 * time.Minute

// MediaStorage wraps an S3-compatible bucket holding shared images and
// profile pictures. Clients upload directly via presigned PUT URLs.
type MediaStorage struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	region        string
	endpoint      string
	usePathStyle  bool
}

// NewMediaStorage builds an S3 client from configuration. A custom endpoint
// with path-style addressing makes it work against MinIO and similar
// S3-compatible backends.
func NewMediaStorage(cfg infraconfig.StorageConfig) (*MediaStorage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("storage credentials are required")
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &MediaStorage{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		endpoint:      endpoint,
		usePathStyle:  cfg.UsePathStyle,
	}, nil
}

// ImageKey returns the bucket key for a shared image.
func ImageKey(id string) string {
	return fmt.Sprintf("images/%s.jpg", id)
}

// ProfileKey returns the bucket key for a profile picture.
func ProfileKey(userID string) string {
	return fmt.Sprintf("profiles/%s.jpg", userID)
}

// PresignUpload generates a presigned PUT URL for the given key.
func (m *MediaStorage) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	request, err := m.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = presignExpiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return request.URL, nil
}

// PublicURL returns the stable download URL for a key.
func (m *MediaStorage) PublicURL(key string) string {
	if m.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(m.endpoint, "/"), m.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", m.bucket, m.region, key)
}

// UploadExpirySeconds is the presigned URL lifetime surfaced to clients.
func (m *MediaStorage) UploadExpirySeconds() int {
	return int(presignExpiry.Seconds())
}
