// Package proofstore uploads payment proof documents to an S3 compatible bucket.
package proofstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/deadline-assistant/deadline-assistant/internal/pkg/config"
)

// Store persists a proof and returns the URL it can be fetched from.
type Store interface {
	Upload(ctx context.Context, in UploadInput) (*UploadResult, error)
}

type UploadInput struct {
	UserID       string
	PaymentLogID string
	Extension    string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// UploadResult contains the result of a successful upload
type UploadResult struct {
	BucketName  string
	ObjectKey   string
	URL         string
	Size        int64
	ContentType string
}

// S3Store wraps the S3 client with proof specific functionality.
type S3Store struct {
	s3Client *s3.Client
	cfg      config.ProofStorageConfig
}

// NewS3Store creates the client. It returns nil and no error when proof
// storage is disabled.
func NewS3Store(ctx context.Context, cfg config.ProofStorageConfig) (*S3Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible services (MinIO, B2) need path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	log.Infof("[ProofStore] Initialized S3 client for bucket: %s", cfg.BucketName)
	return &S3Store{s3Client: s3Client, cfg: cfg}, nil
}

// Check verifies that the bucket is reachable.
func (s *S3Store) Check(ctx context.Context) error {
	_, err := s.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.cfg.BucketName),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", s.cfg.BucketName, err)
	}
	return nil
}

func (s *S3Store) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	objectKey := ObjectKey(in.UserID, in.PaymentLogID, in.Extension)

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.BucketName),
		Key:           aws.String(objectKey),
		Body:          in.Body,
		ContentType:   aws.String(in.ContentType),
		ContentLength: aws.Int64(in.Size),
		Metadata: map[string]string{
			"payment-log-id": in.PaymentLogID,
			"upload-source":  "deadline-assistant",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Infof("[ProofStore] Uploaded: s3://%s/%s (Size: %d bytes)", s.cfg.BucketName, objectKey, in.Size)
	return &UploadResult{
		BucketName:  s.cfg.BucketName,
		ObjectKey:   objectKey,
		URL:         s.ObjectURL(objectKey),
		Size:        in.Size,
		ContentType: in.ContentType,
	}, nil
}

// ObjectKey generates the object key for a proof
func ObjectKey(userID, paymentLogID, ext string) string {
	// Format: proofs/USER/PAYMENT_LOG/UUID.ext
	return fmt.Sprintf("proofs/%s/%s/%s%s", userID, paymentLogID, uuid.NewString(), ext)
}

// ObjectURL returns the URL stored on the payment log.
func (s *S3Store) ObjectURL(objectKey string) string {
	escaped := (&url.URL{Path: objectKey}).EscapedPath()
	switch {
	case s.cfg.PublicBaseURL != "":
		return s.cfg.PublicBaseURL + "/" + escaped
	case s.cfg.EndpointURL != "":
		return strings.TrimRight(s.cfg.EndpointURL, "/") + "/" + s.cfg.BucketName + "/" + escaped
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.BucketName, s.cfg.Region, escaped)
	}
}
