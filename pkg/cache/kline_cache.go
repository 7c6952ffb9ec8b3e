package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"QuantDataHub/pkg/database"
	"QuantDataHub/pkg/model"
)

// KlineCache K线查询的Redis读穿透缓存，rdb为nil时直接透传数据库
type KlineCache struct {
	db        *database.MySQL
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// NewKlineCache 创建K线缓存，ttl为0时默认5分钟
func NewKlineCache(db *database.MySQL, rdb *redis.Client, ttl time.Duration) *KlineCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &KlineCache{
		db:        db,
		rdb:       rdb,
		ttl:       ttl,
		namespace: "klines",
	}
}

// GetRange 查询K线：先查缓存，未命中时回源数据库并回填
func (c *KlineCache) GetRange(ctx context.Context, period model.Period, stockCode string, start, end time.Time) ([]model.Kline, error) {
	if c.rdb == nil {
		return c.db.Kline(period).GetRange(stockCode, start, end)
	}

	key := c.cacheKey(period, stockCode, start, end)

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []model.Kline
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// 缓存内容损坏，删除后回源
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.db.Kline(period).GetRange(stockCode, start, end)
	if err != nil {
		return nil, err
	}

	// 回填缓存，失败不影响返回
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

// InvalidateStock 删除某股票某周期的全部缓存，同步写入后调用
func (c *KlineCache) InvalidateStock(ctx context.Context, period model.Period, stockCode string) error {
	if c.rdb == nil {
		return nil
	}
	pattern := fmt.Sprintf("%s:%s:%s:*", c.namespace, period, safeKey(stockCode))

	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return fmt.Errorf("扫描缓存键失败: %w", err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("删除缓存键失败: %w", err)
			}
		}
		cursor = cur
		if cursor == 0 {
			return nil
		}
	}
}

func (c *KlineCache) cacheKey(period model.Period, stockCode string, start, end time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s",
		c.namespace,
		period,
		safeKey(stockCode),
		start.Format("20060102"),
		end.Format("20060102"),
	)
}

// safeKey 替换Redis键中的问题字符
func safeKey(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
