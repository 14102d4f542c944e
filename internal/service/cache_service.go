package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/grade-stats-api/pkg/errors"
)

const (
	gradeKeyPrefix     = "grades:"
	gradeKeyPattern    = gradeKeyPrefix + "*"
	defaultStatsTTL    = 5 * time.Minute
	statsScopeAllLabel = "all"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// LearnerAveragesKey is the cache key of one learner's per-class averages.
func LearnerAveragesKey(learnerID int) string {
	return gradeKeyPrefix + "learner:" + strconv.Itoa(learnerID) + ":avg-class"
}

// PassRateKey is the cache key of a pass-rate summary; nil means all classes.
func PassRateKey(classID *int) string {
	if classID == nil {
		return gradeKeyPrefix + "stats:" + statsScopeAllLabel
	}
	return gradeKeyPrefix + "stats:class:" + strconv.Itoa(*classID)
}

// CacheService is a read-through cache for computed grade statistics. A cache
// that errors behaves like an empty one; results are always recomputable from
// the grade store. A nil *CacheService is a disabled cache.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Lookup decodes the entry under key into dest and reports a hit.
func (s *CacheService) Lookup(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
	}
	return err == nil
}

// Store caches value under key for the configured TTL. Failures are logged only.
func (s *CacheService) Store(ctx context.Context, key string, value interface{}) {
	if !s.Enabled() {
		return
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateAll drops every cached grade statistic.
func (s *CacheService) InvalidateAll(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, gradeKeyPattern); err != nil {
		s.logger.Warn("stats cache invalidate failed", zap.String("pattern", gradeKeyPattern), zap.Error(err))
		return err
	}
	return nil
}
