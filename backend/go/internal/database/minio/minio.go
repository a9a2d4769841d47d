package minio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"OnboardingBuddy/backend/go/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	client  *minio.Client
	once    sync.Once
	initErr error
)

// GetClient returns the process-wide MinIO client and makes sure the export
// bucket exists.
func GetClient(cfg *config.MinIOConfig) (*minio.Client, error) {
	once.Do(func() {
		c, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.Secure,
		})
		if err != nil {
			initErr = fmt.Errorf("create minio client: %w", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		exists, err := c.BucketExists(ctx, cfg.Bucket)
		if err != nil {
			initErr = fmt.Errorf("check minio bucket '%s': %w", cfg.Bucket, err)
			return
		}
		if !exists {
			if err := c.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
				initErr = fmt.Errorf("create minio bucket '%s': %w", cfg.Bucket, err)
				return
			}
		}
		client = c
	})
	return client, initErr
}

// HealthCheck lists buckets to verify connectivity and credentials. When
// GetClient failed, the connection error is reported.
func HealthCheck(ctx context.Context) error {
	if client == nil {
		if initErr != nil {
			return initErr
		}
		return fmt.Errorf("minio client is not initialised")
	}
	if _, err := client.ListBuckets(ctx); err != nil {
		return fmt.Errorf("minio health check: %w", err)
	}
	return nil
}
