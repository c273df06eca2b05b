package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
	cacheVersionKey = "cache_version"
)

// WithResponseMeta initialises response metadata storage on the request context.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
		meta := ensureMeta(c)
		if _, exists := meta["processing_time_ms"]; !exists {
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
}

// SetCacheHit records cache hit information for the current response.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[cacheHitKey] = hit
}

// SetCacheVersion records the events cache version and mirrors it in X-Cache-Version.
func SetCacheVersion(c *gin.Context, version int64) {
	ensureMeta(c)[cacheVersionKey] = version
	if c != nil {
		c.Header("X-Cache-Version", strconv.FormatInt(version, 10))
	}
}

// ExtractMeta returns the metadata map stored on the context.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	newMeta := make(map[string]interface{})
	c.Set(responseMetaKey, newMeta)
	return newMeta
}

// VersionSource reports the current events cache version.
type VersionSource interface {
	CurrentVersion(ctx context.Context) int64
}

// CacheVersion stamps every response with the current cache version. Handlers that
// mutate data overwrite it with the bumped version.
func CacheVersion(source VersionSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if source != nil {
			SetCacheVersion(c, source.CurrentVersion(c.Request.Context()))
		}
		c.Next()
	}
}
