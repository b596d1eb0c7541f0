package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/openshelf/openshelf/internal/config"
)

// S3Store persists the JSON snapshot document as a single S3 object.
// Works against AWS or any S3-compatible endpoint (MinIO etc.).
type S3Store struct {
	client *s3.Client
	bucket string
	key    string
	logger zerolog.Logger
}

// NewS3Store creates an S3-backed snapshot store.
func NewS3Store(ctx context.Context, cfg config.S3Config, logger zerolog.Logger) (*S3Store, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	logger.Info().
		Str("bucket", cfg.Bucket).
		Str("key", cfg.Key).
		Str("region", cfg.Region).
		Msg("connected to S3 snapshot store")

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		key:    cfg.Key,
		logger: logger.With().Str("component", "persistence").Str("backend", "s3").Logger(),
	}, nil
}

// Save uploads the snapshot document, replacing the previous object.
func (s *S3Store) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("uploading snapshot: %w", err)
	}

	s.logger.Info().Int("bytes", len(data)).Msg("snapshot saved")
	return nil
}

// Load downloads and decodes the snapshot document.
func (s *S3Store) Load(ctx context.Context) (*Snapshot, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("downloading snapshot: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot body: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}

	s.logger.Info().
		Int("books", len(snap.Books)).
		Int("users", len(snap.Users)).
		Int("transactions", len(snap.Transactions)).
		Msg("snapshot loaded")
	return &snap, nil
}

// Close is a no-op for the S3 backend.
func (s *S3Store) Close() error {
	return nil
}

// Ensure S3Store implements Store.
var _ Store = (*S3Store)(nil)
