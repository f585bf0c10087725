package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioConfig locates the bucket uploaded photo bytes go to.
type MinioConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Bucket          string
}

// UploadPrefix is the key prefix, or subdirectory, uploaded photos are stored under.
const UploadPrefix = "photos/"

// ObjectStore keeps uploaded image bytes in one MinIO bucket. Photo records
// only remember the object name.
type ObjectStore struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

// NewObjectStore connects to MinIO and creates the bucket if it doesn't exist.
func NewObjectStore(ctx context.Context, cfg MinioConfig, logger *zap.Logger) (*ObjectStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("bucket created", zap.String("bucket", cfg.Bucket))
	}

	logger.Info("object storage ready", zap.String("endpoint", cfg.Endpoint), zap.String("bucket", cfg.Bucket))
	return &ObjectStore{client: client, bucket: cfg.Bucket, log: logger.Named("objects")}, nil
}

// Put uploads reader under objectName and returns the reference a photo
// record keeps: the object key.
func (o *ObjectStore) Put(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	info, err := o.client.PutObject(ctx, o.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", objectName, err)
	}
	o.log.Debug("object stored", zap.String("key", info.Key), zap.Int64("size", info.Size))
	return info.Key, nil
}

// PresignedGet returns a time-limited download URL for objectName.
func (o *ObjectStore) PresignedGet(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := o.client.PresignedGetObject(ctx, o.bucket, objectName, expiry, make(url.Values))
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Remove deletes objectName from the bucket.
func (o *ObjectStore) Remove(ctx context.Context, objectName string) error {
	return o.client.RemoveObject(ctx, o.bucket, objectName, minio.RemoveObjectOptions{GovernanceBypass: true})
}

// Owns reports whether ref names an uploaded object in this bucket.
func (o *ObjectStore) Owns(ref string) bool {
	return strings.HasPrefix(ref, UploadPrefix) && !strings.Contains(ref, "..")
}
