package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"RaspCD/logger"
	"RaspCD/model"

	"github.com/go-redis/redis/v8"
)

// DiscTTL is how long a resolved disc stays cached.
const DiscTTL = 7 * 24 * time.Hour

// DiscCache caches MusicBrainz results so a re-inserted disc skips the lookup.
type DiscCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDiscCache wraps client. A nil client yields a cache that never hits.
func NewDiscCache(client *redis.Client) *DiscCache {
	return &DiscCache{client: client, ttl: DiscTTL}
}

// DiscKey 生成光盘缓存键
func DiscKey(discID string) string {
	return fmt.Sprintf("disc:%s", discID)
}

// GetDisc returns the cached disc for discID.
func (c *DiscCache) GetDisc(ctx context.Context, discID string) (model.Disc, bool) {
	if c == nil || c.client == nil {
		return model.Disc{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := c.client.Get(ctx, DiscKey(discID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("获取光盘缓存失败", logger.String("discId", discID), logger.ErrorField(err))
		}
		return model.Disc{}, false
	}

	var d model.Disc
	if err := json.Unmarshal(data, &d); err != nil {
		logger.Warn("光盘缓存数据损坏", logger.String("discId", discID), logger.ErrorField(err))
		return model.Disc{}, false
	}
	if d.Empty() {
		return model.Disc{}, false
	}
	return d, true
}

// SetDisc stores a resolved disc. Failures are logged only.
func (c *DiscCache) SetDisc(ctx context.Context, d model.Disc) {
	if c == nil || c.client == nil || d.ID == "" || d.Empty() {
		return
	}
	data, err := json.Marshal(d)
	if err != nil {
		logger.Warn("序列化光盘失败", logger.String("discId", d.ID), logger.ErrorField(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.client.Set(ctx, DiscKey(d.ID), data, c.ttl).Err(); err != nil {
		logger.Warn("设置光盘缓存失败", logger.String("discId", d.ID), logger.ErrorField(err))
		return
	}
	logger.Debug("光盘缓存设置成功", logger.String("discId", d.ID), logger.Duration("ttl", c.ttl))
}
