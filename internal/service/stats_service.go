package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type statsEventSource interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
}

// StatsResult carries dashboard statistics and the cache version they were computed for.
type StatsResult struct {
	Stats    models.EventStats
	Version  int64
	CacheHit bool
}

// StatsService computes the admin dashboard aggregates.
type StatsService struct {
	events   statsEventSource
	cache    *CacheService
	metrics  *MetricsService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewStatsService constructs a StatsService.
func NewStatsService(events statsEventSource, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{events: events, cache: cache, metrics: metrics, cacheTTL: cacheTTL, logger: logger}
}

// Dashboard returns registration statistics across every event.
func (s *StatsService) Dashboard(ctx context.Context) (*StatsResult, error) {
	version := s.cache.Version(ctx, EventsNamespace)
	key := s.cache.Key(EventsNamespace, version, "stats")

	var cached models.EventStats
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &StatsResult{Stats: cached, Version: version, CacheHit: true}, nil
	}

	events, err := s.events.List(ctx, models.EventFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to load statistics")
	}
	stats := ComputeStats(events)
	_ = s.cache.Set(ctx, key, stats, s.cacheTTL)
	return &StatsResult{Stats: stats, Version: version}, nil
}

// System returns process level metrics for the dashboard.
func (s *StatsService) System() models.SystemMetrics {
	return s.metrics.Snapshot()
}

// ComputeStats aggregates registrations across events. Days are UTC calendar dates in
// ascending order; class and division buckets are ordered by count, then name.
func ComputeStats(events []models.Event) models.EventStats {
	stats := models.EventStats{
		TotalEvents:              len(events),
		RegistrationsPerDay:      []models.DailyCount{},
		ClasswiseDistribution:    []models.ClassCount{},
		DivisionwiseDistribution: []models.DivisionCount{},
		CategoryCounts:           make(map[models.EventCategory]int),
	}

	perDay := make(map[string]int)
	perClass := make(map[string]int)
	perDivision := make(map[string]int)

	for _, event := range events {
		stats.CategoryCounts[event.Category]++
		for _, reg := range event.RegisteredStudents {
			stats.TotalRegistrations++
			perDay[reg.RegistrationDate.UTC().Format("2006-01-02")]++
			perClass[reg.Class]++
			perDivision[reg.Division]++
		}
	}

	if stats.TotalEvents > 0 {
		stats.AverageRegistrationsPerEvent = int(math.Round(float64(stats.TotalRegistrations) / float64(stats.TotalEvents)))
	}

	for day, count := range perDay {
		stats.RegistrationsPerDay = append(stats.RegistrationsPerDay, models.DailyCount{Date: day, Count: count})
	}
	sort.Slice(stats.RegistrationsPerDay, func(i, j int) bool {
		return stats.RegistrationsPerDay[i].Date < stats.RegistrationsPerDay[j].Date
	})

	for _, b := range rankBuckets(perClass) {
		stats.ClasswiseDistribution = append(stats.ClasswiseDistribution, models.ClassCount{Class: b.name, Count: b.count})
	}
	for _, b := range rankBuckets(perDivision) {
		stats.DivisionwiseDistribution = append(stats.DivisionwiseDistribution, models.DivisionCount{Division: b.name, Count: b.count})
	}
	return stats
}

type bucket struct {
	name  string
	count int
}

func rankBuckets(counts map[string]int) []bucket {
	out := make([]bucket, 0, len(counts))
	for name, count := range counts {
		out = append(out, bucket{name: name, count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}
