package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beginner-catalog/catalog-service-go/internal/db"
	"github.com/beginner-catalog/catalog-service-go/internal/db/models"
)

// SettingRepository stores named configuration documents.
type SettingRepository interface {
	// Get retrieves a setting by key. db.ErrNotFound is returned when no row exists.
	Get(ctx context.Context, key string) (*models.AppSetting, error)

	// Upsert creates or replaces the value stored under key.
	Upsert(ctx context.Context, key, value string) (*models.AppSetting, error)
}

type settingRepository struct {
	pool *pgxpool.Pool
}

// NewSettingRepository creates a new SettingRepository.
func NewSettingRepository(pool *pgxpool.Pool) SettingRepository {
	return &settingRepository{pool: pool}
}

func (r *settingRepository) Get(ctx context.Context, key string) (*models.AppSetting, error) {
	query := `SELECT key, value, updated_at FROM app_settings WHERE key = $1`

	setting := &models.AppSetting{}
	err := r.pool.QueryRow(ctx, query, key).Scan(&setting.Key, &setting.Value, &setting.UpdatedAt)
	if err != nil {
		return nil, db.WrapError(err, "get setting")
	}

	return setting, nil
}

func (r *settingRepository) Upsert(ctx context.Context, key, value string) (*models.AppSetting, error) {
	query := `
		INSERT INTO app_settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = NOW()
		RETURNING key, value, updated_at
	`

	setting := &models.AppSetting{}
	err := r.pool.QueryRow(ctx, query, key, value).Scan(&setting.Key, &setting.Value, &setting.UpdatedAt)
	if err != nil {
		return nil, db.WrapError(err, "upsert setting")
	}

	return setting, nil
}
