package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/beginner-catalog/catalog-service-go/internal/bci"
	"github.com/beginner-catalog/catalog-service-go/internal/db"
	dbmodels "github.com/beginner-catalog/catalog-service-go/internal/db/models"
	"github.com/beginner-catalog/catalog-service-go/internal/db/repository"
	"github.com/beginner-catalog/catalog-service-go/internal/metrics"
	"github.com/beginner-catalog/catalog-service-go/internal/models"
	"github.com/beginner-catalog/catalog-service-go/pkg/logger"
)

// DefaultLanguage is assigned to imported videos without a known language.
const DefaultLanguage = "ja"

// MetadataFetcher looks up video metadata by URL.
type MetadataFetcher interface {
	FetchVideoMetaByURL(ctx context.Context, rawURL string) (*models.VideoMeta, error)
}

// ImportService creates or updates videos in bulk from curated entries.
type ImportService struct {
	videos  repository.VideoRepository
	weights WeightSource
	meta    MetadataFetcher
	cache   VideoCache
	events  notifier
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

// NewImportService creates an ImportService. meta, cache and publisher may be nil.
func NewImportService(
	videos repository.VideoRepository,
	weights WeightSource,
	meta MetadataFetcher,
	cache VideoCache,
	publisher EventPublisher,
	m *metrics.Metrics,
) *ImportService {
	log := logger.Named("import")
	return &ImportService{
		videos:  videos,
		weights: weights,
		meta:    meta,
		cache:   cache,
		events:  newNotifier(publisher, m, log),
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// resolvedEntry is an import entry after metadata autofill.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type resolvedEntry struct {
	models.ImportEntry
	duration    int
	publishedAt *time.Time
	meta        *models.VideoMeta
}

// Import processes entries in order. Entries sharing a URL collapse to the
// last one. Entries without a URL, and entries that still lack a title or a
// duration after metadata autofill, are skipped. Total counts written videos
// only.
func (s *ImportService) Import(ctx context.Context, entries []models.ImportEntry) (*models.ImportResult, error) {
	weights, err := s.weights.Load(ctx)
	if err != nil {
		return nil, &ProcessingError{Message: "failed to load weights", Cause: err}
	}

	unique, blank := dedupeByURL(entries)
	result := &models.ImportResult{Skipped: blank}
	if blank > 0 {
		s.log.Info("Skipping import entries without URL", zap.Int("count", blank))
	}

	for _, entry := range unique {
		resolved, ok := s.resolve(ctx, entry)
		if !ok {
			result.Skipped++
			continue
		}

		created, err := s.upsert(ctx, resolved, weights)
		if err != nil {
			return nil, err
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	result.Total = result.Created + result.Updated

	s.log.Info("Import completed",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)

	return result, nil
}

func (s *ImportService) resolve(ctx context.Context, entry models.ImportEntry) (*resolvedEntry, bool) {
	r := &resolvedEntry{ImportEntry: entry}
	r.Title = strings.TrimSpace(r.Title)
	if entry.DurationMinutes != nil {
		r.duration = *entry.DurationMinutes
	}

	if entry.PublishedAt != "" {
		t, err := parsePublishedAt(entry.PublishedAt)
		if err != nil {
			s.log.Warn("Ignoring invalid publishedAt on import entry",
				zap.String("url", entry.URL),
				zap.String("publishedAt", entry.PublishedAt),
			)
		} else {
			r.publishedAt = &t
		}
	}

	if (r.Title == "" || r.duration == 0) && s.meta != nil {
		meta, err := s.meta.FetchVideoMetaByURL(ctx, entry.URL)
		if err != nil {
			s.log.Warn("Metadata lookup failed", zap.String("url", entry.URL), zap.Error(err))
		}
		if meta != nil {
			r.meta = meta
			if r.Title == "" {
				r.Title = meta.Title
			}
			if r.Channel == "" {
				r.Channel = meta.Channel
			}
			if r.Language == "" {
				r.Language = meta.Language
			}
			if r.duration == 0 {
				r.duration = meta.DurationMinutes
			}
			if r.publishedAt == nil && !meta.PublishedAt.IsZero() {
				publishedAt := meta.PublishedAt
				r.publishedAt = &publishedAt
			}
			if len(r.Tags) == 0 {
				r.Tags = meta.Tags
			}
		}
	}

	if r.Title == "" || r.duration <= 0 {
		s.log.Info("Skipping import entry without title or duration", zap.String("url", entry.URL))
		return nil, false
	}
	return r, true
}

// upsert writes one resolved entry and reports whether it created a video.
// An existing video keeps every factor the entry does not supply.
func (s *ImportService) upsert(ctx context.Context, r *resolvedEntry, w bci.Weights) (bool, error) {
	video, err := s.videos.GetByURL(ctx, r.URL)
	created := false
	previous := 0
	switch {
	case err == nil:
		previous = video.BCIScore
	case db.IsNotFound(err):
		created = true
		video = dbmodels.NewVideo(r.URL, r.Title, s.now())
		video.Difficulty = bci.DifficultyEasy
	default:
		return false, &ProcessingError{Message: "failed to look up video", Cause: err}
	}

	applyImportEntry(video, r)
	video.Rescore(w, s.now())

	if created {
		err = s.videos.Create(ctx, video)
	} else {
		err = s.videos.Update(ctx, video)
	}
	if err != nil {
		return false, &ProcessingError{Message: "failed to write imported video", Cause: err}
	}

	if !created && s.cache != nil {
		if err := s.cache.InvalidateVideo(ctx, video.ID.String()); err != nil {
			s.log.Warn("Failed to invalidate cached video", zap.String("videoId", video.ID.String()), zap.Error(err))
		}
	}

	s.metrics.VideoScored(PathwayImport)
	s.events.notify(ctx, EventVideoScored, VideoScoredData{
		VideoID:  video.ID.String(),
		Pathway:  PathwayImport,
		Score:    video.BCIScore,
		Previous: previous,
	})

	return created, nil
}

func applyImportEntry(video *dbmodels.Video, r *resolvedEntry) {
	video.Title = r.Title
	video.DurationMinutes = r.duration
	if r.Channel != "" {
		video.Channel = r.Channel
	}
	if r.Language != "" {
		video.Language = r.Language
	} else if video.Language == "" {
		video.Language = DefaultLanguage
	}
	if r.publishedAt != nil {
		video.PublishedAt = *r.publishedAt
	}
	if len(r.Tags) > 0 {
		video.Tags = r.Tags
	}
	if r.Memo != "" {
		memo := r.Memo
		video.SourceNotes = &memo
	}
	if r.meta != nil {
		video.HasClosedCaptions = r.meta.HasClosedCaptions
		video.HasChapterMarkers = r.meta.HasChapterMarkers
		if r.meta.LikeRatio != nil {
			video.LikeRatio = *r.meta.LikeRatio
		}
	}
	if r.Rating != nil {
		video.QualityScore = RatingToQuality(*r.Rating)
		video.Difficulty = RatingToDifficulty(*r.Rating)
	}
}

// RatingToQuality maps a 1-5 curator rating onto 0-1.
func RatingToQuality(rating float64) float64 {
	q := (rating - 1) / 4
	if q < 0 {
		return 0
	}
	if q > 1 {
		return 1
	}
	return q
}

// RatingToDifficulty maps a 1-5 curator rating onto a difficulty: low ratings
// mark material that beginners found hard.
func RatingToDifficulty(rating float64) bci.Difficulty {
	switch {
	case rating <= 2:
		return bci.DifficultyHard
	case rating <= 3:
		return bci.DifficultyNormal
	default:
		return bci.DifficultyEasy
	}
}

// dedupeByURL collapses entries sharing a URL to the last one and reports how
// many entries had a blank URL.
func dedupeByURL(entries []models.ImportEntry) ([]models.ImportEntry, int) {
	index := make(map[string]int, len(entries))
	out := make([]models.ImportEntry, 0, len(entries))
	blank := 0
	for _, e := range entries {
		e.URL = strings.TrimSpace(e.URL)
		if e.URL == "" {
			blank++
			continue
		}
		if i, ok := index[e.URL]; ok {
			out[i] = e
			continue
		}
		index[e.URL] = len(out)
		out = append(out, e)
	}
	return out, blank
}

func parsePublishedAt(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
