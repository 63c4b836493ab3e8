package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/beginner-catalog/catalog-service-go/internal/config"
	"github.com/beginner-catalog/catalog-service-go/internal/db"
	dbmodels "github.com/beginner-catalog/catalog-service-go/internal/db/models"
	"github.com/beginner-catalog/catalog-service-go/internal/db/repository"
	"github.com/beginner-catalog/catalog-service-go/internal/models"
	"github.com/beginner-catalog/catalog-service-go/pkg/logger"
)

// ErrPathNotFound is returned when an operation targets an unknown path.
var ErrPathNotFound = errors.New("path not found")

// PathService implements learning path reads and administrator path mutations.
type PathService struct {
	paths   repository.PathRepository
	catalog config.CatalogConfig
	log     *zap.Logger
}

// NewPathService creates a PathService.
func NewPathService(paths repository.PathRepository, catalog config.CatalogConfig) *PathService {
	return &PathService{
		paths:   paths,
		catalog: catalog,
		log:     logger.Named("paths"),
	}
}

// ListPublished returns a page of published paths, newest first.
func (s *PathService) ListPublished(ctx context.Context, page, limit int) (*models.PathListResponse, error) {
	return s.list(ctx, repository.PathFilters{PublishedOnly: true, Sort: repository.PathSortCreated}, page, limit, s.catalog.DefaultPageSize)
}

// ListAdmin returns a page of all paths, most recently updated first.
func (s *PathService) ListAdmin(ctx context.Context, page, limit int) (*models.PathListResponse, error) {
	return s.list(ctx, repository.PathFilters{Sort: repository.PathSortUpdated}, page, limit, s.catalog.AdminDefaultPageSize)
}

func (s *PathService) list(ctx context.Context, filters repository.PathFilters, page, limit, defaultLimit int) (*models.PathListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if s.catalog.MaxPageSize > 0 && limit > s.catalog.MaxPageSize {
		limit = s.catalog.MaxPageSize
	}
	filters.Limit = limit
	filters.Offset = (page - 1) * limit

	paths, total, err := s.paths.List(ctx, filters)
	if err != nil {
		return nil, &ProcessingError{Message: "failed to list paths", Cause: err}
	}

	views := make([]models.PathView, 0, len(paths))
	for _, p := range paths {
		views = append(views, models.NewPathView(p))
	}

	return &models.PathListResponse{
		Paths:      views,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// GetPublished returns a published path with its steps. Drafts are not found.
func (s *PathService) GetPublished(ctx context.Context, id uuid.UUID) (*dbmodels.Path, error) {
	path, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !path.IsPublished {
		return nil, ErrPathNotFound
	}
	return path, nil
}

// Get returns any path with its steps.
func (s *PathService) Get(ctx context.Context, id uuid.UUID) (*dbmodels.Path, error) {
	path, err := s.paths.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrPathNotFound
		}
		return nil, &ProcessingError{Message: "failed to fetch path", Cause: err}
	}
	return path, nil
}

// Create stores a new path with its steps.
func (s *PathService) Create(ctx context.Context, req *models.CreatePathRequest) (*dbmodels.Path, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, &ValidationError{Message: "title must not be empty"}
	}
	if req.TotalTimeEstimate == nil {
		return nil, &ValidationError{Message: "totalTimeEstimate is required"}
	}

	steps, err := buildSteps(req.Steps)
	if err != nil {
		return nil, err
	}

	path := dbmodels.NewPath(title, req.TargetAudience, req.Goal, *req.TotalTimeEstimate)
	if req.IsPublished != nil {
		path.IsPublished = *req.IsPublished
	}
	path.SetSteps(steps)

	if err := s.paths.Create(ctx, path); err != nil {
		return nil, pathWriteError("failed to create path", err)
	}

	s.log.Info("Path created",
		zap.String("pathId", path.ID.String()),
		zap.Int("steps", len(path.Steps)),
	)

	return s.Get(ctx, path.ID)
}

// Update applies a partial update. Supplied steps replace the stored ones.
func (s *PathService) Update(ctx context.Context, id uuid.UUID, req *models.UpdatePathRequest) (*dbmodels.Path, error) {
	path, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, &ValidationError{Message: "title must not be empty"}
		}
		path.Title = title
	}
	if req.TargetAudience != nil {
		path.TargetAudience = *req.TargetAudience
	}
	if req.Goal != nil {
		path.Goal = *req.Goal
	}
	if req.TotalTimeEstimate != nil {
		path.TotalTimeEstimate = *req.TotalTimeEstimate
	}
	if req.IsPublished != nil {
		path.IsPublished = *req.IsPublished
	}

	replaceSteps := req.Steps != nil
	if replaceSteps {
		steps, err := buildSteps(req.Steps)
		if err != nil {
			return nil, err
		}
		path.SetSteps(steps)
	}

	if err := s.paths.Update(ctx, path, replaceSteps); err != nil {
		if db.IsNotFound(err) {
			return nil, ErrPathNotFound
		}
		return nil, pathWriteError("failed to update path", err)
	}

	return s.Get(ctx, id)
}

// Delete removes a path and its steps.
func (s *PathService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.paths.Delete(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return ErrPathNotFound
		}
		return &ProcessingError{Message: "failed to delete path", Cause: err}
	}

	s.log.Info("Path deleted", zap.String("pathId", id.String()))
	return nil
}

// buildSteps validates submitted steps and returns them sorted by order.
func buildSteps(inputs []models.PathStepInput) ([]dbmodels.PathStep, error) {
	if len(inputs) == 0 {
		return nil, &ValidationError{Message: "at least one step is required"}
	}

	seen := make(map[int]bool, len(inputs))
	steps := make([]dbmodels.PathStep, 0, len(inputs))
	for i, in := range inputs {
		videoID, err := uuid.Parse(in.VideoID)
		if err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("steps[%d].videoId is not a valid id", i)}
		}
		if in.Order == nil {
			return nil, &ValidationError{Message: fmt.Sprintf("steps[%d].order is required", i)}
		}
		if seen[*in.Order] {
			return nil, &ValidationError{Message: fmt.Sprintf("steps[%d].order %d is used more than once", i, *in.Order)}
		}
		seen[*in.Order] = true

		whyThis := strings.TrimSpace(in.WhyThis)
		question := strings.TrimSpace(in.CheckpointQuestion)
		if whyThis == "" || question == "" {
			return nil, &ValidationError{Message: fmt.Sprintf("steps[%d] needs whyThis and checkpointQuestion", i)}
		}

		steps = append(steps, dbmodels.PathStep{
			VideoID:            videoID,
			Order:              *in.Order,
			WhyThis:            whyThis,
			CheckpointQuestion: question,
		})
	}

	sort.Slice(steps, func(a, b int) bool { return steps[a].Order < steps[b].Order })
	return steps, nil
}

func pathWriteError(message string, err error) error {
	if db.IsForeignKey(err) {
		return &ValidationError{Message: "a step references a video that does not exist"}
	}
	return &ProcessingError{Message: message, Cause: err}
}
