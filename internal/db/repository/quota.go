package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beginner-catalog/catalog-service-go/internal/db"
	"github.com/beginner-catalog/catalog-service-go/internal/db/models"
)

// QuotaRepository defines operations for tracking YouTube API quota usage.
type QuotaRepository interface {
	// GetUsage retrieves the usage of one day. A day without calls yields a
	// zero usage, not an error.
	GetUsage(ctx context.Context, date time.Time) (*models.APIQuotaUsage, error)

	// Increment adds cost units for one call of operation on date.
	Increment(ctx context.Context, date time.Time, cost int, operation string) (*models.APIQuotaUsage, error)

	// GetHistory retrieves the most recent days of usage, newest first.
	GetHistory(ctx context.Context, days int) ([]*models.APIQuotaUsage, error)
}

type quotaRepository struct {
	pool *pgxpool.Pool
}

// NewQuotaRepository creates a new QuotaRepository.
func NewQuotaRepository(pool *pgxpool.Pool) QuotaRepository {
	return &quotaRepository{pool: pool}
}

const quotaColumns = `date, quota_used, operations_count, videos_list_calls,
	captions_list_calls, other_calls, created_at, updated_at`

func (r *quotaRepository) GetUsage(ctx context.Context, date time.Time) (*models.APIQuotaUsage, error) {
	query := `SELECT ` + quotaColumns + ` FROM api_quota_usage WHERE date = $1`

	usage, err := scanQuota(r.pool.QueryRow(ctx, query, day(date)))
	if err != nil {
		if db.IsNotFound(err) {
			return &models.APIQuotaUsage{Date: day(date)}, nil
		}
		return nil, err
	}
	return usage, nil
}

func (r *quotaRepository) Increment(ctx context.Context, date time.Time, cost int, operation string) (*models.APIQuotaUsage, error) {
	var videos, captions, other int
	switch operation {
	case models.OperationVideosList:
		videos = 1
	case models.OperationCaptionsList:
		captions = 1
	default:
		other = 1
	}

	query := `
		INSERT INTO api_quota_usage (date, quota_used, operations_count,
			videos_list_calls, captions_list_calls, other_calls)
		VALUES ($1, $2, 1, $3, $4, $5)
		ON CONFLICT (date) DO UPDATE SET
			quota_used          = api_quota_usage.quota_used + EXCLUDED.quota_used,
			operations_count    = api_quota_usage.operations_count + 1,
			videos_list_calls   = api_quota_usage.videos_list_calls + EXCLUDED.videos_list_calls,
			captions_list_calls = api_quota_usage.captions_list_calls + EXCLUDED.captions_list_calls,
			other_calls         = api_quota_usage.other_calls + EXCLUDED.other_calls,
			updated_at          = NOW()
		RETURNING ` + quotaColumns

	usage, err := scanQuota(r.pool.QueryRow(ctx, query, day(date), cost, videos, captions, other))
	if err != nil {
		return nil, db.WrapError(err, "increment quota")
	}
	return usage, nil
}

func (r *quotaRepository) GetHistory(ctx context.Context, days int) ([]*models.APIQuotaUsage, error) {
	if days <= 0 {
		days = 7
	}

	query := `SELECT ` + quotaColumns + `
		FROM api_quota_usage
		WHERE date > CURRENT_DATE - $1::int
		ORDER BY date DESC`

	rows, err := r.pool.Query(ctx, query, days)
	if err != nil {
		return nil, db.WrapError(err, "get quota history")
	}
	defer rows.Close()

	var history []*models.APIQuotaUsage
	for rows.Next() {
		usage, err := scanQuota(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, usage)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "get quota history")
	}

	return history, nil
}

func scanQuota(row interface{ Scan(dest ...any) error }) (*models.APIQuotaUsage, error) {
	usage := &models.APIQuotaUsage{}
	err := row.Scan(
		&usage.Date,
		&usage.QuotaUsed,
		&usage.OperationsCount,
		&usage.VideosListCalls,
		&usage.CaptionsListCalls,
		&usage.OtherCalls,
		&usage.CreatedAt,
		&usage.UpdatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "scan quota usage")
	}
	return usage, nil
}

// day truncates t to its UTC calendar date.
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
