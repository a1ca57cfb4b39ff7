package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MaxIconSize is the largest accepted icon upload
const MaxIconSize = 5 << 20

var (
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrTooLarge         = errors.New("file too large")
)

// s3API is the subset of the S3 client the uploader calls
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Uploader handles user icon uploads to AWS S3
type S3Uploader struct {
	client  s3API
	bucket  string
	region  string
	baseURL string
}

// UploadResult contains the result of an S3 upload
type UploadResult struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Bucket string `json:"bucket"`
	Region string `json:"region"`
	Size   int64  `json:"size"`
}

// NewS3Uploader creates an uploader using the default AWS credential chain.
// baseURL is the public prefix for object URLs (a CDN); when empty the
// bucket's virtual-hosted URL is used.
func NewS3Uploader(ctx context.Context, region, bucket, baseURL string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newS3Uploader(s3.NewFromConfig(cfg), region, bucket, baseURL), nil
}

func newS3Uploader(client s3API, region, bucket, baseURL string) *S3Uploader {
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3Uploader{
		client:  client,
		bucket:  bucket,
		region:  region,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// iconKey lays icons out as icons/{userID}/{uuid}{ext}
func iconKey(userID, extension string) string {
	return fmt.Sprintf("icons/%s/%s%s", userID, uuid.New().String(), strings.ToLower(extension))
}

// UploadIcon uploads an icon image. Only jpg, png, gif and webp up to
// MaxIconSize are accepted.
func (u *S3Uploader) UploadIcon(ctx context.Context, data []byte, userID, filename string) (*UploadResult, error) {
	extension := filepath.Ext(filename)
	if !IsSupportedImage(filename) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedImage, extension)
	}
	if len(data) > MaxIconSize {
		return nil, ErrTooLarge
	}

	key := iconKey(userID, extension)
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(getContentTypeForImage(extension)),
		CacheControl: aws.String("max-age=86400"),
		Metadata: map[string]string{
			"user-id":           userID,
			"original-filename": filename,
			"upload-timestamp":  time.Now().UTC().Format(time.RFC3339),
			"file-type":         "icon",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		Key:    key,
		URL:    u.baseURL + "/" + key,
		Bucket: u.bucket,
		Region: u.region,
		Size:   int64(len(data)),
	}, nil
}

// DeleteFile deletes a file from S3
func (u *S3Uploader) DeleteFile(ctx context.Context, key string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

// KeyFromURL returns the object key for a URL this uploader produced, or ""
func (u *S3Uploader) KeyFromURL(url string) string {
	prefix := u.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}

// DeleteIcon deletes the object behind an icon URL. Foreign URLs are a no-op.
func (u *S3Uploader) DeleteIcon(ctx context.Context, url string) error {
	key := u.KeyFromURL(url)
	if key == "" {
		return nil
	}
	return u.DeleteFile(ctx, key)
}

// CheckBucketAccess verifies that we can access the S3 bucket
func (u *S3Uploader) CheckBucketAccess(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access S3 bucket %s: %w", u.bucket, err)
	}
	return nil
}

// IsSupportedImage reports whether filename has an accepted icon extension
func IsSupportedImage(filename string) bool {
	return getContentTypeForImage(filepath.Ext(filename)) != "application/octet-stream"
}

func getContentTypeForImage(extension string) string {
	switch strings.ToLower(extension) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
