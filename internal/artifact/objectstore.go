// Package artifact locates block output files in object storage and mints
// time-limited access URLs for them.
package artifact

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/scystream/control-plane/internal/ports"
)

// MinioObjectStore is a ports.ObjectStore backed by minio-go, caching one
// client per distinct credential tuple for the lifetime of the
// MinioObjectStore itself. Cached clients are never evicted, so they are
// reused across locate calls, not only within one.
type MinioObjectStore struct {
	mu      sync.Mutex
	clients map[ports.ObjectStoreCredentials]*minio.Client
}

// NewMinioObjectStore returns an empty, ready-to-use client cache.
func NewMinioObjectStore() *MinioObjectStore {
	return &MinioObjectStore{clients: make(map[ports.ObjectStoreCredentials]*minio.Client)}
}

var _ ports.ObjectStore = (*MinioObjectStore)(nil)

func (s *MinioObjectStore) client(creds ports.ObjectStoreCredentials) (*minio.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.clients[creds]; ok {
		return c, nil
	}

	endpoint := creds.Host
	if creds.Port != "" {
		endpoint = fmt.Sprintf("%s:%s", creds.Host, creds.Port)
	}
	c, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKey, creds.SecretKey, ""),
		Secure: creds.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client for %s: %w", endpoint, err)
	}
	s.clients[creds] = c
	return c, nil
}

// ListObjects lists every object under prefix in creds.Bucket.
func (s *MinioObjectStore) ListObjects(ctx context.Context, creds ports.ObjectStoreCredentials, prefix string) ([]ports.ObjectStoreObject, error) {
	c, err := s.client(creds)
	if err != nil {
		return nil, err
	}

	var objects []ports.ObjectStoreObject
	for info := range c.ListObjects(ctx, creds.Bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list objects under %s: %w", prefix, info.Err)
		}
		objects = append(objects, ports.ObjectStoreObject{Key: info.Key})
	}
	return objects, nil
}

// PresignGet mints a GET URL for key valid for ttl.
func (s *MinioObjectStore) PresignGet(ctx context.Context, creds ports.ObjectStoreCredentials, key string, ttl time.Duration) (string, error) {
	c, err := s.client(creds)
	if err != nil {
		return "", err
	}
	u, err := c.PresignedGetObject(ctx, creds.Bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}
