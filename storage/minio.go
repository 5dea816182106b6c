package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"RaspCD/config"
	"RaspCD/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Enabled reports whether a MinIO endpoint is configured.
func Enabled(cfg *config.Config) bool {
	return cfg.MinioEndpoint != ""
}

// CoverStore keeps album cover art in a MinIO bucket, keyed by release id.
type CoverStore struct {
	client *minio.Client
	bucket string
}

// NewCoverStore 初始化 MinIO 客户端并确保存储桶存在
func NewCoverStore(cfg *config.Config) (*CoverStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("created cover bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &CoverStore{client: client, bucket: cfg.MinioBucket}, nil
}

func coverObject(releaseID string) string {
	return "covers/" + releaseID
}

// Has reports whether cover art for the release is stored.
func (s *CoverStore) Has(ctx context.Context, releaseID string) bool {
	_, err := s.client.StatObject(ctx, s.bucket, coverObject(releaseID), minio.StatObjectOptions{})
	return err == nil
}

// Put stores cover art for a release.
func (s *CoverStore) Put(ctx context.Context, releaseID string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	_, err := s.client.PutObject(ctx, s.bucket, coverObject(releaseID), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("upload cover %s: %w", releaseID, err)
	}
	return nil
}

// Get opens stored cover art. The caller closes the reader.
func (s *CoverStore) Get(ctx context.Context, releaseID string) (io.ReadCloser, string, error) {
	object, err := s.client.GetObject(ctx, s.bucket, coverObject(releaseID), minio.GetObjectOptions{})
	if err != nil {
		return nil, "", err
	}
	info, err := object.Stat()
	if err != nil {
		object.Close()
		return nil, "", err
	}
	return object, info.ContentType, nil
}
