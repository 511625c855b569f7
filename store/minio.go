package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig describes an S3-compatible bucket used as a backing store.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Prefix    string

	// Client, when set, is used instead of building one from the fields
	// above.
	Client *minio.Client
}

// Minio stores each entry as one object in an S3-compatible bucket.
type Minio struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinio creates a Minio store. The bucket must already exist.
func NewMinio(cfg MinioConfig) (*Minio, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio store: bucket is required")
	}
	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio store: create client: %w", err)
		}
	}
	return &Minio{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (m *Minio) object(key string) string {
	if m.prefix == "" {
		return key
	}
	return path.Join(m.prefix, key)
}

// Read fetches the object for key. A NoSuchKey response is a miss.
func (m *Minio) Read(ctx context.Context, key string) ([]byte, bool, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, m.object(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, false, fmt.Errorf("minio get %s: %w", key, err)
	}
	defer func() {
		_ = obj.Close()
	}()

	// GetObject is lazy; the first read surfaces a missing object.
	b, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("minio read %s: %w", key, err)
	}
	return b, true, nil
}

// Write uploads val as the object for key.
func (m *Minio) Write(ctx context.Context, key string, val []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, m.object(key), bytes.NewReader(val), int64(len(val)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return fmt.Errorf("minio put %s: %w", key, err)
	}
	return nil
}
