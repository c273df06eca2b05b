package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

// EventsNamespace groups every cached read model derived from events and registrations.
const EventsNamespace = "events"

// CacheRepository abstracts persistence for cached payloads and version counters.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Version(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string) (int64, error)
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService orchestrates versioned cache operations and related metrics.
// Keys embed the namespace version so a bump makes every older entry unreachable.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool

	localVersion atomic.Int64
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether the Redis backed cache is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Key builds a versioned cache key, e.g. events:v3:list:technical:ai.
func (s *CacheService) Key(namespace string, version int64, suffix string) string {
	return fmt.Sprintf("%s:v%d:%s", namespace, version, suffix)
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := s.repo.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Version returns the current version of namespace. Without Redis, or when Redis fails,
// the in-process counter is used.
func (s *CacheService) Version(ctx context.Context, namespace string) int64 {
	if s == nil {
		return 0
	}
	if !s.Enabled() {
		return s.localVersion.Load()
	}
	v, err := s.repo.Version(ctx, versionKey(namespace))
	if err != nil {
		s.logger.Warn("cache version lookup failed", zap.String("namespace", namespace), zap.Error(err))
		return s.localVersion.Load()
	}
	s.observe(v)
	return v
}

// Bump increments the namespace version and drops stale entries best-effort.
// It returns the new version.
func (s *CacheService) Bump(ctx context.Context, namespace string) int64 {
	if s == nil {
		return 0
	}
	if !s.Enabled() {
		v := s.localVersion.Add(1)
		s.metrics.SetCacheVersion(v)
		return v
	}

	v, err := s.repo.Incr(ctx, versionKey(namespace))
	if err != nil {
		s.logger.Warn("cache version bump failed", zap.String("namespace", namespace), zap.Error(err))
		v = s.localVersion.Add(1)
	} else {
		s.observe(v)
	}
	if err := s.repo.DeleteByPattern(ctx, namespace+":*"); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("namespace", namespace), zap.Error(err))
	}
	s.metrics.SetCacheVersion(v)
	return v
}

// observe keeps the local counter at least at the highest version seen remotely.
func (s *CacheService) observe(v int64) {
	for {
		cur := s.localVersion.Load()
		if v <= cur || s.localVersion.CompareAndSwap(cur, v) {
			return
		}
	}
}

func versionKey(namespace string) string {
	return "cache_version:" + namespace
}
