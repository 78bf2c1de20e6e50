package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"stickgpt/stickgpt/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOClient stores named entries as JSON objects in one bucket.
// It satisfies kv.Storage.
type MinIOClient struct {
	client *minio.Client
	bucket string
}

func NewMinIOClient(ctx context.Context, cfg config.Config) (*MinIOClient, error) {
	if cfg.MinIOEndpoint == "" {
		return nil, fmt.Errorf("missing minio endpoint")
	}
	bucket := cfg.MinIOBucket
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: cfg.MinIOSecure,
		},
	)
	if err != nil {
		return nil, err
	}
	// Create bucket if not exists
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}
	return &MinIOClient{client: client, bucket: bucket}, nil
}

func entryKey(name string) string {
	return path.Join("entries", name+".json")
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func (m *MinIOClient) Get(ctx context.Context, name string) (string, bool, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, entryKey(name), minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return "", false, nil
		}
		return "", false, err
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

func (m *MinIOClient) Set(ctx context.Context, name, value string) error {
	_, err := m.client.PutObject(ctx, m.bucket, entryKey(name), strings.NewReader(value), int64(len(value)), minio.PutObjectOptions{ContentType: "application/json"})
	return err
}

func (m *MinIOClient) Remove(ctx context.Context, name string) error {
	err := m.client.RemoveObject(ctx, m.bucket, entryKey(name), minio.RemoveObjectOptions{})
	if err != nil && isNoSuchKey(err) {
		return nil
	}
	return err
}
