package ports

import (
	"context"
	"time"
)

// ObjectStoreCredentials identifies one distinct object-store client
// configuration; the Artifact Locator groups ports by this tuple to reuse
// clients.
type ObjectStoreCredentials struct {
	Host      string
	Port      string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ObjectStoreObject is one listed object under a prefix.
type ObjectStoreObject struct {
	Key string
}

// ObjectStore is the S3 v4 surface the Artifact Locator consumes: list
// objects under a prefix and mint a presigned GET URL.
type ObjectStore interface {
	ListObjects(ctx context.Context, creds ObjectStoreCredentials, prefix string) ([]ObjectStoreObject, error)
	PresignGet(ctx context.Context, creds ObjectStoreCredentials, key string, ttl time.Duration) (string, error)
}
