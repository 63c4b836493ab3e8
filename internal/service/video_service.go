package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/beginner-catalog/catalog-service-go/internal/bci"
	"github.com/beginner-catalog/catalog-service-go/internal/config"
	"github.com/beginner-catalog/catalog-service-go/internal/db"
	dbmodels "github.com/beginner-catalog/catalog-service-go/internal/db/models"
	"github.com/beginner-catalog/catalog-service-go/internal/db/repository"
	"github.com/beginner-catalog/catalog-service-go/internal/metrics"
	"github.com/beginner-catalog/catalog-service-go/internal/models"
	"github.com/beginner-catalog/catalog-service-go/pkg/logger"
)

// Scoring pathways, used in events and metrics.
const (
	PathwayCreate  = "create"
	PathwayUpdate  = "update"
	PathwayImport  = "import"
	PathwaySummary = "summary"
)

// ErrDuplicateVideo is returned when a video with the same URL already exists.
var ErrDuplicateVideo = errors.New("video with this url already exists")

// VideoService implements catalog reads and administrator video mutations.
// Every mutation scores the fully merged state of the video with the active
// weights before it is written.
type VideoService struct {
	videos  repository.VideoRepository
	weights WeightSource
	cache   VideoCache
	events  notifier
	metrics *metrics.Metrics
	catalog config.CatalogConfig
	log     *zap.Logger
	now     func() time.Time
}

// NewVideoService creates a VideoService. cache and publisher may be nil.
func NewVideoService(
	videos repository.VideoRepository,
	weights WeightSource,
	cache VideoCache,
	publisher EventPublisher,
	m *metrics.Metrics,
	catalog config.CatalogConfig,
) *VideoService {
	log := logger.Named("videos")
	return &VideoService{
		videos:  videos,
		weights: weights,
		cache:   cache,
		events:  newNotifier(publisher, m, log),
		metrics: m,
		catalog: catalog,
		log:     log,
		now:     time.Now,
	}
}

// ListCatalog returns a page of published videos.
func (s *VideoService) ListCatalog(ctx context.Context, q models.CatalogQuery) (*models.VideoListResponse, error) {
	filters := repository.VideoFilters{
		PublishedOnly: true,
		Language:      q.Language,
		Tags:          q.Tags,
		Query:         q.Query,
	}

	switch q.Level {
	case "":
	case models.LevelBeginner:
		filters.Difficulties = []bci.Difficulty{bci.DifficultyEasy}
	case models.LevelIntermediate:
		filters.Difficulties = []bci.Difficulty{bci.DifficultyNormal, bci.DifficultyHard}
	default:
		return nil, &ValidationError{Message: fmt.Sprintf("invalid level %q: must be beginner or intermediate", q.Level)}
	}

	for _, d := range q.Durations {
		switch b := repository.DurationBucket(d); b {
		case repository.DurationShort, repository.DurationMedium, repository.DurationLong:
			filters.Durations = append(filters.Durations, b)
		default:
			return nil, &ValidationError{Message: fmt.Sprintf("invalid duration %q: must be short, medium or long", d)}
		}
	}

	switch sort := repository.VideoSort(q.Sort); sort {
	case "":
		filters.Sort = repository.SortBCI
	case repository.SortBCI, repository.SortNewest, repository.SortPopular, repository.SortRecommended:
		filters.Sort = sort
	default:
		return nil, &ValidationError{Message: fmt.Sprintf("invalid sort %q: must be bci, newest, popular or recommended", q.Sort)}
	}

	page, limit := s.pageBounds(q.Page, q.Limit, s.catalog.DefaultPageSize)
	filters.Limit = limit
	filters.Offset = (page - 1) * limit

	videos, total, err := s.videos.List(ctx, filters)
	if err != nil {
		return nil, &ProcessingError{Message: "failed to list videos", Cause: err}
	}

	return &models.VideoListResponse{
		Videos:     models.NewVideoViews(videos),
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// GetCatalogVideo returns a published video and related videos, served from
// the cache when possible.
func (s *VideoService) GetCatalogVideo(ctx context.Context, id uuid.UUID) (*models.VideoDetailResponse, error) {
	key := id.String()

	if s.cache != nil {
		cached, err := s.cache.GetVideo(ctx, key)
		if err != nil {
			s.log.Warn("Video cache read failed", zap.String("videoId", key), zap.Error(err))
		}
		if cached != nil {
			var resp models.VideoDetailResponse
			if err := json.Unmarshal(cached, &resp); err == nil {
				s.metrics.CacheLookup(true)
				return &resp, nil
			}
		}
		s.metrics.CacheLookup(false)
	}

	video, err := s.videos.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrVideoNotFound
		}
		return nil, &ProcessingError{Message: "failed to fetch video", Cause: err}
	}
	if !video.IsPublished {
		return nil, ErrVideoNotFound
	}

	related, err := s.videos.ListRelated(ctx, id, video.Tags, s.catalog.RelatedVideos)
	if err != nil {
		return nil, &ProcessingError{Message: "failed to fetch related videos", Cause: err}
	}

	resp := &models.VideoDetailResponse{
		Video:         models.NewVideoView(video),
		RelatedVideos: models.NewVideoViews(related),
	}

	if s.cache != nil {
		if err := s.cache.SetVideo(ctx, key, resp); err != nil {
			s.log.Warn("Video cache write failed", zap.String("videoId", key), zap.Error(err))
		}
	}

	return resp, nil
}

// ListAdmin returns a page of all videos, drafts included, most recently
// updated first.
func (s *VideoService) ListAdmin(ctx context.Context, query string, page, limit int) (*models.VideoListResponse, error) {
	page, limit = s.pageBounds(page, limit, s.catalog.AdminDefaultPageSize)

	videos, total, err := s.videos.List(ctx, repository.VideoFilters{
		Query:  query,
		Sort:   repository.SortUpdated,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, &ProcessingError{Message: "failed to list videos", Cause: err}
	}

	return &models.VideoListResponse{
		Videos:     models.NewVideoViews(videos),
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// ListTags returns the tags of published videos, most used first.
func (s *VideoService) ListTags(ctx context.Context) (*models.TagListResponse, error) {
	tags, err := s.videos.ListTags(ctx)
	if err != nil {
		return nil, &ProcessingError{Message: "failed to list tags", Cause: err}
	}
	return &models.TagListResponse{Tags: tags}, nil
}

// Get returns any video by ID.
func (s *VideoService) Get(ctx context.Context, id uuid.UUID) (*dbmodels.Video, error) {
	video, err := s.videos.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrVideoNotFound
		}
		return nil, &ProcessingError{Message: "failed to fetch video", Cause: err}
	}
	return video, nil
}

// Create adds a video and scores it.
func (s *VideoService) Create(ctx context.Context, req *models.CreateVideoRequest) (*dbmodels.Video, error) {
	publishedAt := s.now()
	if req.PublishedAt != nil {
		publishedAt = *req.PublishedAt
	}

	video := dbmodels.NewVideo(strings.TrimSpace(req.URL), strings.TrimSpace(req.Title), publishedAt)
	video.Channel = req.Channel
	if req.Language != "" {
		video.Language = req.Language
	}
	video.DurationMinutes = req.DurationMinutes
	if req.Tags != nil {
		video.Tags = req.Tags
	}
	video.HasClosedCaptions = req.HasClosedCaptions
	video.HasChapterMarkers = req.HasChapterMarkers
	video.SourceNotes = req.SourceNotes
	video.QualityScore = req.QualityScore
	video.HasSampleCode = req.HasSampleCode
	video.LikeRatio = req.LikeRatio
	if req.IsPublished != nil {
		video.IsPublished = *req.IsPublished
	}
	if req.Difficulty != "" {
		d, err := bci.ParseDifficulty(req.Difficulty)
		if err != nil {
			return nil, &ValidationError{Message: err.Error()}
		}
		video.Difficulty = d
	}

	if _, err := s.score(ctx, video); err != nil {
		return nil, err
	}

	if err := s.videos.Create(ctx, video); err != nil {
		if db.IsDuplicateKey(err) {
			return nil, ErrDuplicateVideo
		}
		return nil, &ProcessingError{Message: "failed to create video", Cause: err}
	}

	s.scored(ctx, video, PathwayCreate, 0)
	return video, nil
}

// Update applies a partial update on top of the stored video and rescores
// the merged result.
func (s *VideoService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateVideoRequest) (*dbmodels.Video, error) {
	video, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := video.BCIScore

	if err := applyUpdate(video, req); err != nil {
		return nil, err
	}

	if _, err := s.score(ctx, video); err != nil {
		return nil, err
	}

	if err := s.videos.Update(ctx, video); err != nil {
		if db.IsNotFound(err) {
			return nil, ErrVideoNotFound
		}
		return nil, &ProcessingError{Message: "failed to update video", Cause: err}
	}

	s.invalidate(ctx, id)
	s.scored(ctx, video, PathwayUpdate, previous)
	return video, nil
}

// Delete removes a video.
func (s *VideoService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.videos.Delete(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return ErrVideoNotFound
		}
		return &ProcessingError{Message: "failed to delete video", Cause: err}
	}
	s.invalidate(ctx, id)
	s.log.Info("Video deleted", zap.String("videoId", id.String()))
	return nil
}

// ApplySummary stores a transcript summary. The video is reloaded so the
// score is computed from its current stored factors plus the summary's
// difficulty, not from a snapshot taken when the summary was requested.
func (s *VideoService) ApplySummary(ctx context.Context, id uuid.UUID, summary *models.VideoSummary) (*dbmodels.Video, error) {
	video, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := video.BCIScore

	transcriptSummary := summary.TranscriptSummary
	video.TranscriptSummary = &transcriptSummary
	video.Glossary = summary.Glossary
	video.DeprecatedFlags = summary.DeprecatedFlags
	video.Learnings = summary.Learnings
	if summary.Prerequisites != "" {
		prerequisites := summary.Prerequisites
		video.Prerequisites = &prerequisites
	} else {
		video.Prerequisites = nil
	}
	if summary.Difficulty.Valid() {
		video.Difficulty = summary.Difficulty
	}

	if _, err := s.score(ctx, video); err != nil {
		return nil, err
	}

	if err := s.videos.Update(ctx, video); err != nil {
		if db.IsNotFound(err) {
			return nil, ErrVideoNotFound
		}
		return nil, &ProcessingError{Message: "failed to store summary", Cause: err}
	}

	s.invalidate(ctx, id)
	s.scored(ctx, video, PathwaySummary, previous)
	return video, nil
}

// score loads the active weights and recomputes the video's score.
func (s *VideoService) score(ctx context.Context, video *dbmodels.Video) (bool, error) {
	weights, err := s.weights.Load(ctx)
	if err != nil {
		return false, &ProcessingError{Message: "failed to load weights", Cause: err}
	}
	return video.Rescore(weights, s.now()), nil
}

func (s *VideoService) scored(ctx context.Context, video *dbmodels.Video, pathway string, previous int) {
	s.metrics.VideoScored(pathway)
	s.events.notify(ctx, EventVideoScored, VideoScoredData{
		VideoID:  video.ID.String(),
		Pathway:  pathway,
		Score:    video.BCIScore,
		Previous: previous,
	})
	s.log.Info("Video scored",
		zap.String("videoId", video.ID.String()),
		zap.String("pathway", pathway),
		zap.Int("score", video.BCIScore),
	)
}

func (s *VideoService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateVideo(ctx, id.String()); err != nil {
		s.log.Warn("Failed to invalidate cached video", zap.String("videoId", id.String()), zap.Error(err))
	}
}

func (s *VideoService) pageBounds(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if s.catalog.MaxPageSize > 0 && limit > s.catalog.MaxPageSize {
		limit = s.catalog.MaxPageSize
	}
	return page, limit
}

func applyUpdate(video *dbmodels.Video, req *models.UpdateVideoRequest) error {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return &ValidationError{Message: "title must not be empty"}
		}
		video.Title = title
	}
	if req.Channel != nil {
		video.Channel = *req.Channel
	}
	if req.Language != nil {
		video.Language = *req.Language
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes < 0 {
			return &ValidationError{Message: "durationMin must not be negative"}
		}
		video.DurationMinutes = *req.DurationMinutes
	}
	if req.PublishedAt != nil {
		video.PublishedAt = *req.PublishedAt
	}
	if req.Tags != nil {
		video.Tags = req.Tags
	}
	if req.HasClosedCaptions != nil {
		video.HasClosedCaptions = *req.HasClosedCaptions
	}
	if req.HasChapterMarkers != nil {
		video.HasChapterMarkers = *req.HasChapterMarkers
	}
	if req.SourceNotes != nil {
		video.SourceNotes = req.SourceNotes
	}
	if req.QualityScore != nil {
		if *req.QualityScore < 0 || *req.QualityScore > 1 {
			return &ValidationError{Message: "qualityScore must be between 0 and 1"}
		}
		video.QualityScore = *req.QualityScore
	}
	if req.TranscriptSummary != nil {
		video.TranscriptSummary = req.TranscriptSummary
	}
	if req.Glossary != nil {
		video.Glossary = req.Glossary
	}
	if req.DeprecatedFlags != nil {
		video.DeprecatedFlags = req.DeprecatedFlags
	}
	if req.Prerequisites != nil {
		video.Prerequisites = req.Prerequisites
	}
	if req.Learnings != nil {
		video.Learnings = req.Learnings
	}
	if req.Difficulty != nil {
		d, err := bci.ParseDifficulty(*req.Difficulty)
		if err != nil {
			return &ValidationError{Message: err.Error()}
		}
		video.Difficulty = d
	}
	if req.HasSampleCode != nil {
		video.HasSampleCode = *req.HasSampleCode
	}
	if req.LikeRatio != nil {
		if *req.LikeRatio < 0 || *req.LikeRatio > 1 {
			return &ValidationError{Message: "likeRatio must be between 0 and 1"}
		}
		video.LikeRatio = *req.LikeRatio
	}
	if req.IsPublished != nil {
		video.IsPublished = *req.IsPublished
	}
	return nil
}
