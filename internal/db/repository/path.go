package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beginner-catalog/catalog-service-go/internal/db"
	"github.com/beginner-catalog/catalog-service-go/internal/db/models"
)

// PathSort selects the ordering of a path listing.
type PathSort string

// Path listing orders, newest first.
const (
	PathSortCreated PathSort = "created"
	PathSortUpdated PathSort = "updated"
)

// PathFilters narrows a path listing.
type PathFilters struct {
	PublishedOnly bool
	Sort          PathSort
	Limit         int
	Offset        int
}

// PathRepository defines operations for managing learning paths and their steps.
type PathRepository interface {
	// Create inserts a path together with its steps.
	Create(ctx context.Context, path *models.Path) error

	// GetByID retrieves a path with its steps, each carrying its video, in step order.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Path, error)

	// List retrieves paths without steps, with StepCount set, and the total match count.
	List(ctx context.Context, filters PathFilters) ([]*models.Path, int, error)

	// Update overwrites the path's fields. When replaceSteps is set the stored
	// steps are replaced by path.Steps in the same transaction.
	Update(ctx context.Context, path *models.Path, replaceSteps bool) error

	// Delete removes a path and its steps.
	Delete(ctx context.Context, id uuid.UUID) error
}

type pathRepository struct {
	pool *pgxpool.Pool
}

// NewPathRepository creates a new PathRepository.
func NewPathRepository(pool *pgxpool.Pool) PathRepository {
	return &pathRepository{pool: pool}
}

const pathColumns = `
	p.id, p.title, p.target_audience, p.goal, p.total_time_estimate, p.is_published,
	(SELECT COUNT(*)::int FROM path_steps s WHERE s.path_id = p.id) AS step_count,
	p.created_at, p.updated_at`

var pathSortColumns = map[PathSort]string{
	PathSortCreated: "p.created_at",
	PathSortUpdated: "p.updated_at",
}

func (r *pathRepository) Create(ctx context.Context, path *models.Path) error {
	if path.ID == uuid.Nil {
		path.ID = uuid.New()
	}

	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO paths (id, title, target_audience, goal, total_time_estimate, is_published)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at
		`
		err := tx.QueryRow(ctx, query,
			path.ID,
			path.Title,
			path.TargetAudience,
			path.Goal,
			path.TotalTimeEstimate,
			path.IsPublished,
		).Scan(&path.CreatedAt, &path.UpdatedAt)
		if err != nil {
			return err
		}

		return insertSteps(ctx, tx, path)
	})
	if err != nil {
		return db.WrapError(err, "create path")
	}

	path.StepCount = len(path.Steps)
	return nil
}

func (r *pathRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Path, error) {
	query := `SELECT ` + pathColumns + ` FROM paths p WHERE p.id = $1`

	path, err := scanPath(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, db.WrapError(err, "get path by id")
	}

	steps, err := r.loadSteps(ctx, id)
	if err != nil {
		return nil, err
	}
	path.Steps = steps

	return path, nil
}

func (r *pathRepository) List(ctx context.Context, filters PathFilters) ([]*models.Path, int, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	where := ""
	if filters.PublishedOnly {
		where = " WHERE p.is_published"
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)::int FROM paths p"+where).Scan(&total); err != nil {
		return nil, 0, db.WrapError(err, "count paths")
	}

	column, ok := pathSortColumns[filters.Sort]
	if !ok {
		column = pathSortColumns[PathSortCreated]
	}

	query := `SELECT ` + pathColumns + ` FROM paths p` + where +
		fmt.Sprintf(" ORDER BY %s DESC, p.id LIMIT $1 OFFSET $2", column)

	rows, err := r.pool.Query(ctx, query, filters.Limit, filters.Offset)
	if err != nil {
		return nil, 0, db.WrapError(err, "list paths")
	}
	defer rows.Close()

	paths := []*models.Path{}
	for rows.Next() {
		path, err := scanPath(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan path: %w", err)
		}
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate paths: %w", err)
	}

	return paths, total, nil
}

func (r *pathRepository) Update(ctx context.Context, path *models.Path, replaceSteps bool) error {
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			UPDATE paths
			SET title = $2,
			    target_audience = $3,
			    goal = $4,
			    total_time_estimate = $5,
			    is_published = $6,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at
		`
		err := tx.QueryRow(ctx, query,
			path.ID,
			path.Title,
			path.TargetAudience,
			path.Goal,
			path.TotalTimeEstimate,
			path.IsPublished,
		).Scan(&path.UpdatedAt)
		if err != nil {
			return err
		}

		if !replaceSteps {
			return nil
		}

		if _, err := tx.Exec(ctx, `DELETE FROM path_steps WHERE path_id = $1`, path.ID); err != nil {
			return err
		}
		return insertSteps(ctx, tx, path)
	})
	if err != nil {
		return db.WrapError(err, "update path")
	}

	if replaceSteps {
		path.StepCount = len(path.Steps)
	}
	return nil
}

func (r *pathRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM paths WHERE id = $1`, id)
	if err != nil {
		return db.WrapError(err, "delete path")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete path: %w", db.ErrNotFound)
	}
	return nil
}

// loadSteps reads the steps of a path in order and attaches their videos.
func (r *pathRepository) loadSteps(ctx context.Context, pathID uuid.UUID) ([]models.PathStep, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, path_id, video_id, step_order, why_this, checkpoint_question
		FROM path_steps
		WHERE path_id = $1
		ORDER BY step_order, id
	`, pathID)
	if err != nil {
		return nil, db.WrapError(err, "list path steps")
	}

	steps := []models.PathStep{}
	videoIDs := []uuid.UUID{}
	for rows.Next() {
		var s models.PathStep
		if err := rows.Scan(&s.ID, &s.PathID, &s.VideoID, &s.Order, &s.WhyThis, &s.CheckpointQuestion); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan path step: %w", err)
		}
		steps = append(steps, s)
		videoIDs = append(videoIDs, s.VideoID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate path steps: %w", err)
	}

	if len(steps) == 0 {
		return steps, nil
	}

	videoRows, err := r.pool.Query(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ANY($1)`, videoIDs)
	if err != nil {
		return nil, db.WrapError(err, "list path step videos")
	}
	defer videoRows.Close()

	videos, err := scanVideos(videoRows)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.Video, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}
	for i := range steps {
		steps[i].Video = byID[steps[i].VideoID]
	}

	return steps, nil
}

func insertSteps(ctx context.Context, tx pgx.Tx, path *models.Path) error {
	if len(path.Steps) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range path.Steps {
		s := &path.Steps[i]
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		s.PathID = path.ID
		batch.Queue(`
			INSERT INTO path_steps (id, path_id, video_id, step_order, why_this, checkpoint_question)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, s.ID, s.PathID, s.VideoID, s.Order, s.WhyThis, s.CheckpointQuestion)
	}

	results := tx.SendBatch(ctx, batch)
	for range path.Steps {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return err
		}
	}
	return results.Close()
}

func scanPath(row pgx.Row) (*models.Path, error) {
	path := &models.Path{}
	err := row.Scan(
		&path.ID,
		&path.Title,
		&path.TargetAudience,
		&path.Goal,
		&path.TotalTimeEstimate,
		&path.IsPublished,
		&path.StepCount,
		&path.CreatedAt,
		&path.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return path, nil
}
