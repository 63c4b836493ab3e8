package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beginner-catalog/catalog-service-go/internal/db"
	"github.com/beginner-catalog/catalog-service-go/internal/db/testutil"
)

func TestSettingRepository(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	repo := NewSettingRepository(td.Pool)
	ctx := context.Background()
	td.TruncateTables(t)

	_, err := repo.Get(ctx, "bci-weights")
	assert.True(t, db.IsNotFound(err))

	first, err := repo.Upsert(ctx, "bci-weights", `{"shortDuration":20}`)
	require.NoError(t, err)
	assert.Equal(t, `{"shortDuration":20}`, first.Value)

	second, err := repo.Upsert(ctx, "bci-weights", `{"shortDuration":5}`)
	require.NoError(t, err)
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))

	got, err := repo.Get(ctx, "bci-weights")
	require.NoError(t, err)
	assert.Equal(t, `{"shortDuration":5}`, got.Value)

	t.Run("arbitrary text is stored verbatim", func(t *testing.T) {
		_, err := repo.Upsert(ctx, "bci-weights", `{not json`)
		require.NoError(t, err)

		got, err := repo.Get(ctx, "bci-weights")
		require.NoError(t, err)
		assert.Equal(t, `{not json`, got.Value)
	})
}
