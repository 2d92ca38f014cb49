// Package s3store implements the ObjectStore port on any S3-compatible
// endpoint (AWS S3, MinIO).
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/SscSPs/videotube_backend/internal/platform/logctx"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Seams for tests.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

const keyPrefix = "users"

// Config configures the bucket and how its objects are addressed publicly.
type Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	UsePathStyle  bool
}

// Store uploads local files to a bucket and returns their public URL.
type Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
	now           func() time.Time
}

// New builds an S3 client from cfg. Static credentials are used when an
// access key is configured, otherwise the default AWS credential chain.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket must be set")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &Store{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: baseURL,
		now:           time.Now,
	}, nil
}

// Upload puts the file at localPath into the bucket under a fresh key and
// returns its public URL. The local file is removed whatever the outcome.
func (s *Store) Upload(ctx context.Context, localPath string) (string, error) {
	if localPath == "" {
		return "", errors.New("no local file to upload")
	}
	defer s.removeLocal(ctx, localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat upload: %w", err)
	}

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}

	key := s.objectKey(localPath, mtype.Extension())
	_, err = putObject(s.client, ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(mtype.String()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}

	url := s.publicBaseURL + "/" + key
	logctx.FromContext(ctx).DebugContext(ctx, "Uploaded object",
		slog.String("key", key), slog.String("content_type", mtype.String()), slog.Int64("bytes", info.Size()))
	return url, nil
}

// objectKey is users/yyyy/mm/dd/<uuid><ext>.
func (s *Store) objectKey(localPath, sniffedExt string) string {
	ext := sniffedExt
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(localPath))
	}
	return path.Join(keyPrefix, s.now().UTC().Format("2006/01/02"), uuid.NewString()+ext)
}

func (s *Store) removeLocal(ctx context.Context, localPath string) {
	if err := os.Remove(localPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logctx.FromContext(ctx).WarnContext(ctx, "Failed to remove temp upload",
			slog.String("path", localPath), slog.String("error", err.Error()))
	}
}
