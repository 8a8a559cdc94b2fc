package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	common "bank_etl/internal/app/common/exception_handler"
	"bank_etl/internal/app/common/logger"
	"bank_etl/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// PageCache keeps fetched source documents in redis, keyed by a hash of the reference.
type PageCache struct {
	Client *redis.Client
	logger *logrus.Logger
}

func NewRedis(ctx context.Context, addr, password string, db int) (*PageCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, common.NewCustomError(common.ErrCacheConnect, "Failed to connect to Redis", err)
	}

	return &PageCache{Client: rdb, logger: logger.GetLogger()}, nil
}

// GetPage returns the cached document for ref. ok is false on a cache miss.
func (c *PageCache) GetPage(ctx context.Context, ref string) (page string, ok bool, err error) {
	page, err = c.Client.Get(ctx, utils.PageCacheKey(ref)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return page, true, nil
}

func (c *PageCache) SetPage(ctx context.Context, ref, page string, ttl time.Duration) error {
	if err := c.Client.Set(ctx, utils.PageCacheKey(ref), page, ttl).Err(); err != nil {
		c.logger.Error(fmt.Sprintf("Failed to cache page %s: %v", ref, err))
		return err
	}
	return nil
}

func (c *PageCache) Close() {
	c.Client.Close()
}
