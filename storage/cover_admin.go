package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// CoverInfo describes a stored cover.
type CoverInfo struct {
	ReleaseID    string
	Size         int64
	LastModified time.Time
}

// BucketStats 封面存储统计信息
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// List returns every stored cover, newest first.
func (s *CoverStore) List(ctx context.Context) ([]CoverInfo, error) {
	var covers []CoverInfo
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    coverObject(""),
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("列出封面失败: %w", object.Err)
		}
		covers = append(covers, CoverInfo{
			ReleaseID:    strings.TrimPrefix(object.Key, coverObject("")),
			Size:         object.Size,
			LastModified: object.LastModified,
		})
	}

	sort.Slice(covers, func(i, j int) bool {
		return covers[i].LastModified.After(covers[j].LastModified)
	})
	return covers, nil
}

// Stats summarises the stored covers.
func (s *CoverStore) Stats(ctx context.Context) (BucketStats, error) {
	covers, err := s.List(ctx)
	if err != nil {
		return BucketStats{}, err
	}
	return summarize(covers), nil
}

func summarize(covers []CoverInfo) BucketStats {
	var stats BucketStats
	for _, c := range covers {
		stats.TotalObjects++
		stats.TotalSize += c.Size
		if c.LastModified.After(stats.LastModified) {
			stats.LastModified = c.LastModified
		}
	}
	return stats
}

// Delete removes the cover of a release.
func (s *CoverStore) Delete(ctx context.Context, releaseID string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, coverObject(releaseID), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除封面失败: %w", err)
	}
	return nil
}

// FormatSize 格式化文件大小
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
