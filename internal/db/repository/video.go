package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beginner-catalog/catalog-service-go/internal/bci"
	"github.com/beginner-catalog/catalog-service-go/internal/db"
	"github.com/beginner-catalog/catalog-service-go/internal/db/models"
)

// Duration bucket boundaries in minutes, inclusive upper bounds.
const (
	ShortVideoMaxMinutes  = 10
	MediumVideoMaxMinutes = 30
)

// DurationBucket is a coarse duration band used by catalog filters.
type DurationBucket string

// Duration buckets.
const (
	DurationShort  DurationBucket = "short"
	DurationMedium DurationBucket = "medium"
	DurationLong   DurationBucket = "long"
)

// VideoSort selects the ordering of a listing.
type VideoSort string

// Listing orders. Every order is descending and ties break on id.
const (
	SortBCI         VideoSort = "bci"
	SortNewest      VideoSort = "newest"
	SortPopular     VideoSort = "popular"
	SortRecommended VideoSort = "recommended"
	SortUpdated     VideoSort = "updated"
)

var sortColumns = map[VideoSort]string{
	SortBCI:         "bci_score",
	SortNewest:      "published_at",
	SortPopular:     "like_ratio",
	SortRecommended: "quality_score",
	SortUpdated:     "updated_at",
}

// VideoFilters narrows a video listing. Zero values impose no constraint.
type VideoFilters struct {
	PublishedOnly bool
	Difficulties  []bci.Difficulty
	Durations     []DurationBucket
	Language      string
	Tags          []string
	Query         string
	Sort          VideoSort
	Limit         int
	Offset        int
}

// VideoRepository defines operations for managing catalog videos.
type VideoRepository interface {
	// Create inserts a new video.
	Create(ctx context.Context, video *models.Video) error

	// GetByID retrieves a single video by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error)

	// GetByURL retrieves a single video by its URL.
	GetByURL(ctx context.Context, url string) (*models.Video, error)

	// Update overwrites every mutable column of an existing video.
	Update(ctx context.Context, video *models.Video) error

	// Delete removes a video.
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves videos matching filters and the total match count.
	List(ctx context.Context, filters VideoFilters) ([]*models.Video, int, error)

	// ListRelated retrieves published videos sharing at least one tag with tags.
	ListRelated(ctx context.Context, id uuid.UUID, tags []string, limit int) ([]*models.Video, error)

	// ListScoringInputs reads the factors and stored score of every video.
	ListScoringInputs(ctx context.Context) ([]models.ScoringInput, error)

	// UpdateScores writes all updates in a single transaction.
	UpdateScores(ctx context.Context, updates []models.ScoreUpdate) error

	// ListTags counts the trimmed, lower-cased tags of published videos,
	// most used first.
	ListTags(ctx context.Context) ([]models.TagCount, error)
}

type videoRepository struct {
	pool *pgxpool.Pool
}

// NewVideoRepository creates a new VideoRepository.
func NewVideoRepository(pool *pgxpool.Pool) VideoRepository {
	return &videoRepository{pool: pool}
}

const videoColumns = `
	id, url, title, channel, language, duration_min, published_at, tags,
	has_cc, has_chapters, source_notes, quality_score, bci_score,
	transcript_summary, glossary, deprecated_flags, prerequisites, learnings,
	difficulty, has_sample_code, like_ratio, is_published, created_at, updated_at`

func (r *videoRepository) Create(ctx context.Context, video *models.Video) error {
	if video.ID == uuid.Nil {
		video.ID = uuid.New()
	}

	glossaryJSON, err := marshalGlossary(video.Glossary)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO videos (
			id, url, title, channel, language, duration_min, published_at, tags,
			has_cc, has_chapters, source_notes, quality_score, bci_score,
			transcript_summary, glossary, deprecated_flags, prerequisites, learnings,
			difficulty, has_sample_code, like_ratio, is_published
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING created_at, updated_at
	`

	err = r.pool.QueryRow(ctx, query,
		video.ID,
		video.URL,
		video.Title,
		video.Channel,
		video.Language,
		video.DurationMinutes,
		video.PublishedAt,
		nonNil(video.Tags),
		video.HasClosedCaptions,
		video.HasChapterMarkers,
		video.SourceNotes,
		video.QualityScore,
		video.BCIScore,
		video.TranscriptSummary,
		glossaryJSON,
		nonNil(video.DeprecatedFlags),
		video.Prerequisites,
		nonNil(video.Learnings),
		string(video.Difficulty),
		video.HasSampleCode,
		video.LikeRatio,
		video.IsPublished,
	).Scan(&video.CreatedAt, &video.UpdatedAt)

	if err != nil {
		return db.WrapError(err, "create video")
	}

	return nil
}

func (r *videoRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`

	video, err := scanVideo(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, db.WrapError(err, "get video by id")
	}

	return video, nil
}

func (r *videoRepository) GetByURL(ctx context.Context, url string) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE url = $1`

	video, err := scanVideo(r.pool.QueryRow(ctx, query, url))
	if err != nil {
		return nil, db.WrapError(err, "get video by url")
	}

	return video, nil
}

func (r *videoRepository) Update(ctx context.Context, video *models.Video) error {
	glossaryJSON, err := marshalGlossary(video.Glossary)
	if err != nil {
		return err
	}

	query := `
		UPDATE videos
		SET url = $2,
		    title = $3,
		    channel = $4,
		    language = $5,
		    duration_min = $6,
		    published_at = $7,
		    tags = $8,
		    has_cc = $9,
		    has_chapters = $10,
		    source_notes = $11,
		    quality_score = $12,
		    bci_score = $13,
		    transcript_summary = $14,
		    glossary = $15,
		    deprecated_flags = $16,
		    prerequisites = $17,
		    learnings = $18,
		    difficulty = $19,
		    has_sample_code = $20,
		    like_ratio = $21,
		    is_published = $22,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err = r.pool.QueryRow(ctx, query,
		video.ID,
		video.URL,
		video.Title,
		video.Channel,
		video.Language,
		video.DurationMinutes,
		video.PublishedAt,
		nonNil(video.Tags),
		video.HasClosedCaptions,
		video.HasChapterMarkers,
		video.SourceNotes,
		video.QualityScore,
		video.BCIScore,
		video.TranscriptSummary,
		glossaryJSON,
		nonNil(video.DeprecatedFlags),
		video.Prerequisites,
		nonNil(video.Learnings),
		string(video.Difficulty),
		video.HasSampleCode,
		video.LikeRatio,
		video.IsPublished,
	).Scan(&video.UpdatedAt)

	if err != nil {
		return db.WrapError(err, "update video")
	}

	return nil
}

func (r *videoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return db.WrapError(err, "delete video")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete video: %w", db.ErrNotFound)
	}
	return nil
}

func (r *videoRepository) List(ctx context.Context, filters VideoFilters) ([]*models.Video, int, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	whereClause, args := buildVideoWhere(filters)

	countQuery := "SELECT COUNT(*)::int FROM videos" + whereClause
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, db.WrapError(err, "count videos")
	}

	column, ok := sortColumns[filters.Sort]
	if !ok {
		column = sortColumns[SortBCI]
	}

	argIndex := len(args) + 1
	query := `SELECT ` + videoColumns + ` FROM videos` + whereClause +
		fmt.Sprintf(" ORDER BY %s DESC, id LIMIT $%d OFFSET $%d", column, argIndex, argIndex+1)
	args = append(args, filters.Limit, filters.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.WrapError(err, "list videos")
	}
	defer rows.Close()

	videos, err := scanVideos(rows)
	if err != nil {
		return nil, 0, err
	}

	return videos, total, nil
}

func (r *videoRepository) ListRelated(ctx context.Context, id uuid.UUID, tags []string, limit int) ([]*models.Video, error) {
	if len(tags) == 0 || limit <= 0 {
		return []*models.Video{}, nil
	}

	query := `SELECT ` + videoColumns + `
		FROM videos
		WHERE is_published AND id <> $1 AND tags && $2
		ORDER BY bci_score DESC, id
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, id, tags, limit)
	if err != nil {
		return nil, db.WrapError(err, "list related videos")
	}
	defer rows.Close()

	return scanVideos(rows)
}

func (r *videoRepository) ListScoringInputs(ctx context.Context) ([]models.ScoringInput, error) {
	query := `
		SELECT id, duration_min, has_cc, has_chapters, difficulty, published_at,
		       has_sample_code, like_ratio, bci_score
		FROM videos
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "list scoring inputs")
	}
	defer rows.Close()

	var inputs []models.ScoringInput
	for rows.Next() {
		var in models.ScoringInput
		var difficulty string
		err := rows.Scan(
			&in.ID,
			&in.Factors.DurationMinutes,
			&in.Factors.HasClosedCaptions,
			&in.Factors.HasChapterMarkers,
			&difficulty,
			&in.Factors.PublishedAt,
			&in.Factors.HasSampleCode,
			&in.Factors.LikeRatio,
			&in.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("scan scoring input: %w", err)
		}
		in.Factors.Difficulty = bci.Difficulty(difficulty)
		inputs = append(inputs, in)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scoring inputs: %w", err)
	}

	return inputs, nil
}

func (r *videoRepository) UpdateScores(ctx context.Context, updates []models.ScoreUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, u := range updates {
			batch.Queue(`UPDATE videos SET bci_score = $2, updated_at = NOW() WHERE id = $1`, u.ID, u.Score)
		}

		results := tx.SendBatch(ctx, batch)
		for range updates {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return err
			}
		}
		return results.Close()
	})
	if err != nil {
		return db.WrapError(err, "update scores")
	}

	return nil
}

func (r *videoRepository) ListTags(ctx context.Context) ([]models.TagCount, error) {
	query := `
		SELECT lower(btrim(tag)) AS tag, COUNT(DISTINCT videos.id)::int AS uses
		FROM videos, unnest(tags) AS tag
		WHERE is_published AND btrim(tag) <> ''
		GROUP BY 1
		ORDER BY uses DESC, tag
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "list tags")
	}
	defer rows.Close()

	tags := []models.TagCount{}
	for rows.Next() {
		var tc models.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}

	return tags, nil
}

// buildVideoWhere renders filters as a WHERE clause with positional args.
func buildVideoWhere(filters VideoFilters) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.PublishedOnly {
		conditions = append(conditions, "is_published")
	}

	if len(filters.Difficulties) > 0 {
		values := make([]string, len(filters.Difficulties))
		for i, d := range filters.Difficulties {
			values[i] = string(d)
		}
		conditions = append(conditions, "difficulty = ANY("+next(values)+")")
	}

	var bands []string
	for _, b := range filters.Durations {
		switch b {
		case DurationShort:
			bands = append(bands, fmt.Sprintf("duration_min <= %d", ShortVideoMaxMinutes))
		case DurationMedium:
			bands = append(bands, fmt.Sprintf("(duration_min > %d AND duration_min <= %d)", ShortVideoMaxMinutes, MediumVideoMaxMinutes))
		case DurationLong:
			bands = append(bands, fmt.Sprintf("duration_min > %d", MediumVideoMaxMinutes))
		}
	}
	if len(bands) > 0 {
		conditions = append(conditions, "("+strings.Join(bands, " OR ")+")")
	}

	if filters.Language != "" {
		conditions = append(conditions, "language = "+next(filters.Language))
	}

	if len(filters.Tags) > 0 {
		conditions = append(conditions, "tags @> "+next(filters.Tags))
	}

	if filters.Query != "" {
		p := next("%" + escapeLike(filters.Query) + "%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE %s OR channel ILIKE %s)", p, p))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func marshalGlossary(items []models.GlossaryItem) ([]byte, error) {
	if items == nil {
		items = []models.GlossaryItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal glossary: %w", err)
	}
	return b, nil
}

func scanVideo(row pgx.Row) (*models.Video, error) {
	video := &models.Video{}
	var glossaryJSON []byte
	var difficulty string

	err := row.Scan(
		&video.ID,
		&video.URL,
		&video.Title,
		&video.Channel,
		&video.Language,
		&video.DurationMinutes,
		&video.PublishedAt,
		&video.Tags,
		&video.HasClosedCaptions,
		&video.HasChapterMarkers,
		&video.SourceNotes,
		&video.QualityScore,
		&video.BCIScore,
		&video.TranscriptSummary,
		&glossaryJSON,
		&video.DeprecatedFlags,
		&video.Prerequisites,
		&video.Learnings,
		&difficulty,
		&video.HasSampleCode,
		&video.LikeRatio,
		&video.IsPublished,
		&video.CreatedAt,
		&video.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	video.Difficulty = bci.Difficulty(difficulty)
	video.Glossary = []models.GlossaryItem{}
	if len(glossaryJSON) > 0 {
		if err := json.Unmarshal(glossaryJSON, &video.Glossary); err != nil {
			return nil, fmt.Errorf("decode glossary: %w", err)
		}
	}

	return video, nil
}

func scanVideos(rows pgx.Rows) ([]*models.Video, error) {
	videos := []*models.Video{}

	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}
