package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachePrefix namespaces cached event responses.
const CachePrefix = "cache:events:"

// CacheVersionKey holds the generation of cached event responses. Every purge bumps it,
// so a response computed before a purge is stored under a key no reader asks for again.
const CacheVersionKey = "cache:version:events"

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// ResponseCache caches successful GET responses in Redis for ttl and sets X-Cache HIT or MISS.
func ResponseCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		version, err := rdb.Get(ctx, CacheVersionKey).Int64()
		if err != nil && err != redis.Nil {
			logger.Warn("cache version read failed", zap.Error(err))
			c.Next()
			return
		}
		key := cacheKey(c, version)

		if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
			var hit cachedResponse
			if err := json.Unmarshal(raw, &hit); err == nil {
				c.Header("X-Cache", "HIT")
				c.Data(hit.Status, hit.ContentType, hit.Body)
				c.Abort()
				return
			}
		} else if err != redis.Nil {
			logger.Warn("cache read failed", zap.Error(err), zap.String("key", key))
		}

		bw := &bufferedWriter{ResponseWriter: c.Writer}
		c.Writer = bw
		c.Header("X-Cache", "MISS")

		c.Next()

		if bw.Status() < 200 || bw.Status() >= 300 {
			return
		}
		raw, err := json.Marshal(cachedResponse{
			Status:      bw.Status(),
			ContentType: bw.Header().Get("Content-Type"),
			Body:        bw.buf.Bytes(),
		})
		if err != nil {
			return
		}
		if err := rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
			logger.Warn("cache write failed", zap.Error(err), zap.String("key", key))
		}
	}
}

func cacheKey(c *gin.Context, version int64) string {
	sum := sha1.Sum([]byte(c.Request.URL.Path + "?" + c.Request.URL.RawQuery))
	return CachePrefix + strconv.FormatInt(version, 10) + ":" + hex.EncodeToString(sum[:])
}

type bufferedWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CacheInvalidator drops every cached event response.
type CacheInvalidator struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewCacheInvalidator creates an invalidator over the same Redis the cache writes to.
func NewCacheInvalidator(rdb *redis.Client, logger *zap.Logger) *CacheInvalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheInvalidator{rdb: rdb, logger: logger}
}

// PurgeEvents bumps CacheVersionKey, then deletes the keys left under CachePrefix.
// Errors are logged; entries of an old version are never read and expire with their TTL.
func (ci *CacheInvalidator) PurgeEvents(ctx context.Context) {
	if err := ci.rdb.Incr(ctx, CacheVersionKey).Err(); err != nil {
		ci.logger.Warn("cache version bump failed", zap.Error(err))
	}
	iter := ci.rdb.Scan(ctx, 0, CachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		ci.logger.Warn("cache scan failed", zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := ci.rdb.Del(ctx, keys...).Err(); err != nil {
		ci.logger.Warn("cache purge failed", zap.Error(err))
	}
}
