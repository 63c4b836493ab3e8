package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beginner-catalog/catalog-service-go/internal/db/models"
	"github.com/beginner-catalog/catalog-service-go/internal/db/testutil"
)

func TestQuotaRepository(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	repo := NewQuotaRepository(td.Pool)
	ctx := context.Background()
	td.TruncateTables(t)

	today := time.Now().UTC()

	empty, err := repo.GetUsage(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.QuotaUsed)

	_, err = repo.Increment(ctx, today, 1, models.OperationVideosList)
	require.NoError(t, err)
	_, err = repo.Increment(ctx, today, 50, models.OperationCaptionsList)
	require.NoError(t, err)
	usage, err := repo.Increment(ctx, today, 1, "")
	require.NoError(t, err)

	assert.Equal(t, 52, usage.QuotaUsed)
	assert.Equal(t, 3, usage.OperationsCount)
	assert.Equal(t, 1, usage.VideosListCalls)
	assert.Equal(t, 1, usage.CaptionsListCalls)
	assert.Equal(t, 1, usage.OtherCalls)

	got, err := repo.GetUsage(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 52, got.QuotaUsed)

	_, err = repo.Increment(ctx, today.AddDate(0, 0, -1), 7, models.OperationVideosList)
	require.NoError(t, err)

	history, err := repo.GetHistory(ctx, 7)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 52, history[0].QuotaUsed)
	assert.Equal(t, 7, history[1].QuotaUsed)
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	got := day(time.Date(2025, 3, 2, 3, 30, 0, 0, loc))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), got)
}
