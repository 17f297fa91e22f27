package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSStorage mirrors downloaded artifacts into a bucket under a prefix.
type GCSStorage struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSStorage(ctx context.Context, bucket, prefix, credentialsFile string) (*GCSStorage, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStorage{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func (s *GCSStorage) objectName(name string) string {
	return path.Join(s.prefix, filepath.Base(name))
}

func (s *GCSStorage) uri(object string) string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, object)
}

// Upload copies a local file into the bucket and returns its gs:// URI.
func (s *GCSStorage) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer func() { _ = f.Close() }()

	return s.SaveArtifact(ctx, filepath.Base(localPath), f)
}

func (s *GCSStorage) SaveArtifact(ctx context.Context, name string, r io.Reader) (string, error) {
	object := s.objectName(name)
	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "video/mp4"

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize %s: %w", object, err)
	}
	return s.uri(object), nil
}

func (s *GCSStorage) ListArtifacts(ctx context.Context) ([]ArtifactInfo, error) {
	query := &storage.Query{Prefix: s.prefix}

	var artifacts []ArtifactInfo
	it := s.client.Bucket(s.bucket).Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		if !isVideo(attrs.Name) {
			continue
		}
		artifacts = append(artifacts, ArtifactInfo{
			Name:     path.Base(attrs.Name),
			Location: s.uri(attrs.Name),
			Size:     attrs.Size,
			Modified: attrs.Updated,
		})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Modified.After(artifacts[j].Modified)
	})
	return artifacts, nil
}
