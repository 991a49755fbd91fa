package media

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStore holds uploaded blobs and resolves their public URLs.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	URL(key string) string
}

// s3Client is the subset of the S3 API the store needs.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// PublicURL is the base objects are served from. When empty it is
	// derived from Endpoint and Bucket in path style.
	PublicURL string
}

// S3Store writes to any S3-compatible bucket.
type S3Store struct {
	client    s3Client
	bucket    string
	publicURL string
}

func NewS3Store(cfg S3Config) *S3Store {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return newS3Store(s3.New(opts), cfg)
}

func newS3Store(client s3Client, cfg S3Config) *S3Store {
	base := cfg.PublicURL
	if base == "" {
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", cfg.Region)
		}
		base = strings.TrimRight(endpoint, "/") + "/" + cfg.Bucket
	}
	return &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(base, "/"),
	}
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) URL(key string) string {
	return s.publicURL + "/" + escapeKey(key)
}

// DirStore keeps blobs on local disk. The server exposes Root under Prefix.
type DirStore struct {
	Root   string
	Prefix string
}

func NewDirStore(root, prefix string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &DirStore{Root: root, Prefix: strings.TrimRight(prefix, "/")}, nil
}

func (d *DirStore) Put(_ context.Context, key, _ string, data []byte) error {
	if !filepath.IsLocal(filepath.FromSlash(key)) {
		return fmt.Errorf("invalid object key %q", key)
	}
	dst := filepath.Join(d.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write object %s: %w", key, err)
	}
	return nil
}

func (d *DirStore) URL(key string) string {
	return d.Prefix + "/" + escapeKey(key)
}

func escapeKey(key string) string {
	parts := strings.Split(path.Clean(key), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
