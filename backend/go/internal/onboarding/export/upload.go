package export

import (
	"context"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
)

// Uploader copies a written export file to remote storage.
type Uploader interface {
	Upload(ctx context.Context, objectName, path string) error
}

// MinIOUploader stores export files in a MinIO bucket.
type MinIOUploader struct {
	client *minio.Client
	bucket string
}

func NewMinIOUploader(client *minio.Client, bucket string) *MinIOUploader {
	return &MinIOUploader{client: client, bucket: bucket}
}

// Upload puts the file under objectName with its detected content type.
func (u *MinIOUploader) Upload(ctx context.Context, objectName, path string) error {
	contentType := "application/octet-stream"
	if mtype, err := mimetype.DetectFile(path); err == nil {
		contentType = mtype.String()
	}
	_, err := u.client.FPutObject(ctx, u.bucket, objectName, path, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s to bucket %s: %w", objectName, u.bucket, err)
	}
	return nil
}
