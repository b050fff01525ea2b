package narration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/seenimoa/newspulse/internal/config"
)

// FileStore keeps narration audio in a local directory. References are
// file paths.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "audio"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("narration: audio dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("narration: audio dir: %w", err)
	}
	return &FileStore{dir: abs}, nil
}

// Dir returns the absolute storage directory.
func (s *FileStore) Dir() string { return s.dir }

// Put writes data atomically through a temp file.
func (s *FileStore) Put(_ context.Context, name string, data []byte) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	tmp, err := os.CreateTemp(s.dir, ".narration-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return path, nil
}

// Open returns the file behind ref. Paths outside the store directory are
// rejected.
func (s *FileStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	path, err := filepath.Abs(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	if filepath.Dir(path) != s.dir {
		return nil, fmt.Errorf("%w: %s", ErrInvalidReference, ref)
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrAudioNotFound, ref)
	}
	return f, err
}

// s3API is the part of the S3 client the store calls.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store keeps narration audio in a bucket. References are s3://bucket/key.
type S3Store struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Store loads the default AWS credential chain with the configured
// region. A custom endpoint switches to path-style addressing for
// S3-compatible servers.
func NewS3Store(ctx context.Context, cfg config.S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("narration: s3 store needs a bucket")
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("narration: load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Store(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Store(client s3API, bucket, prefix string) *S3Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// Put uploads data as audio/mpeg.
func (s *S3Store) Put(ctx context.Context, name string, data []byte) (string, error) {
	key := s.prefix + name
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("audio/mpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("upload s3://%s/%s: %w", s.bucket, key, err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}

// Open downloads the object behind ref.
func (s *S3Store) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	bucket, key, ok := parseS3Ref(ref)
	if !ok || bucket != s.bucket || !strings.HasPrefix(key, s.prefix) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidReference, ref)
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		var apiErr smithy.APIError
		if errors.As(err, &noKey) || (errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound") {
			return nil, fmt.Errorf("%w: %s", ErrAudioNotFound, ref)
		}
		return nil, err
	}
	return out.Body, nil
}

func parseS3Ref(ref string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(ref, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
