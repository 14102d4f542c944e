package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/grade-stats-api/internal/aggregator"
	"github.com/noah-isme/grade-stats-api/internal/models"
	appErrors "github.com/noah-isme/grade-stats-api/pkg/errors"
)

// GradeRecordSource is the store the statistics are computed from.
type GradeRecordSource interface {
	Find(ctx context.Context, filter models.GradeFilter) ([]models.ScoreRecord, error)
	DistinctLearnerCount(ctx context.Context, filter models.GradeFilter) (int, error)
}

// GradeStatsOptions tunes GradeStatsService. Cache TTL lives on CacheService.
type GradeStatsOptions struct {
	PassThreshold float64
	QueryTimeout  time.Duration
}

// GradeStatsService computes weighted averages and pass rates over stored records.
type GradeStatsService struct {
	source  GradeRecordSource
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	opts    GradeStatsOptions
}

// NewGradeStatsService constructs GradeStatsService. cache and metrics may be nil.
func NewGradeStatsService(source GradeRecordSource, cache *CacheService, metrics *MetricsService, logger *zap.Logger, opts GradeStatsOptions) *GradeStatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PassThreshold <= 0 {
		opts.PassThreshold = aggregator.DefaultPassThreshold
	}
	return &GradeStatsService{source: source, cache: cache, metrics: metrics, logger: logger, opts: opts}
}

// ClassAveragesForLearner returns the learner's weighted average in each class.
// A learner without records gets an empty slice and no error.
func (s *GradeStatsService) ClassAveragesForLearner(ctx context.Context, learnerID int) ([]models.ClassAverage, error) {
	if learnerID < 0 {
		return nil, appErrors.Invalid("learner id must be a non-negative integer")
	}

	cacheKey := LearnerAveragesKey(learnerID)
	var cached []models.ClassAverage
	if s.cache.Lookup(ctx, cacheKey, &cached) {
		return cached, nil
	}

	records, err := s.find(ctx, "learner_records", models.GradeFilter{LearnerID: &learnerID})
	if err != nil {
		return nil, err
	}

	averages := aggregator.ClassAveragesForLearner(records, learnerID)
	s.metrics.ObserveAggregation("class_averages", len(averages))
	s.cache.Store(ctx, cacheKey, averages)
	return averages, nil
}

// PassRateStats reports how many learners reach the pass threshold, optionally
// scoped to one class. The denominator is the distinct learner count of that scope.
func (s *GradeStatsService) PassRateStats(ctx context.Context, classID *int) (models.StatsSummary, error) {
	filter := models.GradeFilter{}
	if classID != nil {
		if *classID < models.MinClassID || *classID > models.MaxClassID {
			return models.StatsSummary{}, appErrors.Invalid("class id must be between %d and %d", models.MinClassID, models.MaxClassID)
		}
		filter.ClassID = classID
	}

	cacheKey := PassRateKey(classID)
	var cached models.StatsSummary
	if s.cache.Lookup(ctx, cacheKey, &cached) {
		return cached, nil
	}

	var (
		records    []models.ScoreRecord
		population int
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		records, err = s.find(groupCtx, "scope_records", filter)
		return err
	})
	group.Go(func() error {
		var err error
		population, err = s.countLearners(groupCtx, filter)
		return err
	})
	if err := group.Wait(); err != nil {
		return models.StatsSummary{}, err
	}

	averages := aggregator.LearnerAverages(records)
	s.metrics.ObserveAggregation("learner_averages", len(averages))
	summary := aggregator.PassRate(averages, population, s.opts.PassThreshold)

	s.logger.Debug("pass rate computed",
		zap.Intp("class_id", classID),
		zap.Int("population", summary.TotalLearners),
		zap.Int("qualifying", summary.Learners),
	)
	s.cache.Store(ctx, cacheKey, summary)
	return summary, nil
}

func (s *GradeStatsService) find(ctx context.Context, label string, filter models.GradeFilter) ([]models.ScoreRecord, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	start := time.Now()
	records, err := s.source.Find(ctx, filter)
	s.metrics.ObserveStoreQuery(label, time.Since(start), err)
	if err != nil {
		s.logger.Error("grade store query failed", zap.String("query", label), zap.Error(err))
		return nil, appErrors.Unavailable(err, "failed to load grade records")
	}
	return records, nil
}

func (s *GradeStatsService) countLearners(ctx context.Context, filter models.GradeFilter) (int, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	start := time.Now()
	count, err := s.source.DistinctLearnerCount(ctx, filter)
	s.metrics.ObserveStoreQuery("distinct_learners", time.Since(start), err)
	if err != nil {
		s.logger.Error("grade store query failed", zap.String("query", "distinct_learners"), zap.Error(err))
		return 0, appErrors.Unavailable(err, "failed to count learners")
	}
	return count, nil
}

func (s *GradeStatsService) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.QueryTimeout)
}
