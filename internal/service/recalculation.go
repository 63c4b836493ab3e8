package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/beginner-catalog/catalog-service-go/internal/bci"
	"github.com/beginner-catalog/catalog-service-go/internal/db/models"
	"github.com/beginner-catalog/catalog-service-go/internal/db/repository"
	"github.com/beginner-catalog/catalog-service-go/internal/metrics"
	apimodels "github.com/beginner-catalog/catalog-service-go/internal/models"
	"github.com/beginner-catalog/catalog-service-go/pkg/logger"
)

// RecalculationService rescores every stored video against the active weights.
type RecalculationService struct {
	videos  repository.VideoRepository
	weights WeightSource
	cache   VideoCache
	events  notifier
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

// NewRecalculationService creates a RecalculationService. cache and publisher may be nil.
func NewRecalculationService(
	videos repository.VideoRepository,
	weights WeightSource,
	cache VideoCache,
	publisher EventPublisher,
	m *metrics.Metrics,
) *RecalculationService {
	log := logger.Named("recalculation")
	return &RecalculationService{
		videos:  videos,
		weights: weights,
		cache:   cache,
		events:  newNotifier(publisher, m, log),
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// RecalculateAll scores every video with a single weight snapshot and writes
// the changed scores in one transaction. Either every changed score is
// written or none is. Videos created while the run is in progress may be
// missed; they were scored with current weights when they were written.
func (s *RecalculationService) RecalculateAll(ctx context.Context) (*apimodels.RecalculationResult, error) {
	start := s.now()

	weights, err := s.weights.Load(ctx)
	if err != nil {
		return nil, &ProcessingError{Message: "failed to load weights", Cause: err}
	}

	inputs, err := s.videos.ListScoringInputs(ctx)
	if err != nil {
		return nil, &ProcessingError{Message: "failed to read videos", Cause: err}
	}

	updates := changedScores(inputs, weights, start)

	if len(updates) > 0 {
		if err := s.videos.UpdateScores(ctx, updates); err != nil {
			s.log.Error("Recalculation failed, no scores were changed",
				zap.Int("pending", len(updates)),
				zap.Error(err),
			)
			return nil, &ProcessingError{Message: "failed to apply score updates", Cause: err}
		}

		if s.cache != nil {
			if err := s.cache.InvalidateAll(ctx); err != nil {
				s.log.Warn("Failed to invalidate cached videos", zap.Error(err))
			}
		}
	}

	result := &apimodels.RecalculationResult{
		TotalVideosExamined: len(inputs),
		VideosUpdated:       len(updates),
	}

	elapsed := s.now().Sub(start)
	s.metrics.ObserveRecalculation(elapsed, result.VideosUpdated)
	s.events.notify(ctx, EventRecalculated, result)

	s.log.Info("BCI recalculation completed",
		zap.Int("total", result.TotalVideosExamined),
		zap.Int("updated", result.VideosUpdated),
		zap.Duration("elapsed", elapsed),
	)

	return result, nil
}

func changedScores(inputs []models.ScoringInput, w bci.Weights, now time.Time) []models.ScoreUpdate {
	var updates []models.ScoreUpdate
	for _, in := range inputs {
		score := bci.CalculateAt(in.Factors, w, now)
		if score != in.Score {
			updates = append(updates, models.ScoreUpdate{ID: in.ID, Score: score})
		}
	}
	return updates
}
