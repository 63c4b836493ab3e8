package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beginner-catalog/catalog-service-go/internal/db"
	"github.com/beginner-catalog/catalog-service-go/internal/db/models"
	"github.com/beginner-catalog/catalog-service-go/internal/db/testutil"
)

func seedVideos(t *testing.T, repo VideoRepository, n int) []*models.Video {
	t.Helper()
	videos := make([]*models.Video, 0, n)
	for i := 0; i < n; i++ {
		v := newTestVideo("https://youtu.be/step"+uuid.NewString()[:8], "step video")
		require.NoError(t, repo.Create(context.Background(), v))
		videos = append(videos, v)
	}
	return videos
}

func newTestPath(title string, videos ...*models.Video) *models.Path {
	p := models.NewPath(title, "new programmers", "ship a CLI", 60)
	steps := make([]models.PathStep, 0, len(videos))
	for i, v := range videos {
		steps = append(steps, models.PathStep{
			VideoID:            v.ID,
			Order:              i + 1,
			WhyThis:            "builds on the previous step",
			CheckpointQuestion: "What changed?",
		})
	}
	p.SetSteps(steps)
	return p
}

func TestPathRepository_CreateAndGet(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	videos := NewVideoRepository(td.Pool)
	repo := NewPathRepository(td.Pool)
	ctx := context.Background()

	t.Run("steps come back in order with videos", func(t *testing.T) {
		td.TruncateTables(t)
		vs := seedVideos(t, videos, 3)

		p := newTestPath("Go from zero", vs[2], vs[0], vs[1])
		require.NoError(t, repo.Create(ctx, p))
		assert.NotZero(t, p.CreatedAt)
		assert.Equal(t, 3, p.StepCount)

		got, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Go from zero", got.Title)
		assert.Equal(t, 60, got.TotalTimeEstimate)
		assert.Equal(t, 3, got.StepCount)
		require.Len(t, got.Steps, 3)
		for i, s := range got.Steps {
			assert.Equal(t, i+1, s.Order)
			require.NotNil(t, s.Video)
			assert.Equal(t, s.VideoID, s.Video.ID)
		}
		assert.Equal(t, vs[2].ID, got.Steps[0].VideoID)
	})

	t.Run("unknown video is a foreign key violation", func(t *testing.T) {
		td.TruncateTables(t)

		p := newTestPath("Broken", &models.Video{ID: uuid.New()})
		err := repo.Create(ctx, p)
		assert.True(t, db.IsForeignKey(err))

		_, err = repo.GetByID(ctx, p.ID)
		assert.True(t, db.IsNotFound(err), "path insert must roll back with its steps")
	})

	t.Run("duplicate step order is rejected", func(t *testing.T) {
		td.TruncateTables(t)
		vs := seedVideos(t, videos, 2)

		p := newTestPath("Dup", vs...)
		p.Steps[1].Order = 1
		err := repo.Create(ctx, p)
		assert.True(t, db.IsDuplicateKey(err))
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.True(t, db.IsNotFound(err))
	})
}

func TestPathRepository_List(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	videos := NewVideoRepository(td.Pool)
	repo := NewPathRepository(td.Pool)
	ctx := context.Background()
	td.TruncateTables(t)

	vs := seedVideos(t, videos, 2)
	published := newTestPath("Published", vs...)
	draft := newTestPath("Draft", vs[0])
	draft.IsPublished = false
	require.NoError(t, repo.Create(ctx, published))
	require.NoError(t, repo.Create(ctx, draft))

	t.Run("published only", func(t *testing.T) {
		paths, total, err := repo.List(ctx, PathFilters{PublishedOnly: true, Sort: PathSortCreated, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, paths, 1)
		assert.Equal(t, published.ID, paths[0].ID)
		assert.Equal(t, 2, paths[0].StepCount)
		assert.Nil(t, paths[0].Steps)
	})

	t.Run("admin sees drafts", func(t *testing.T) {
		paths, total, err := repo.List(ctx, PathFilters{Sort: PathSortUpdated, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, paths, 1)
	})
}

func TestPathRepository_UpdateAndDelete(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	videos := NewVideoRepository(td.Pool)
	repo := NewPathRepository(td.Pool)
	ctx := context.Background()

	t.Run("replaces steps", func(t *testing.T) {
		td.TruncateTables(t)
		vs := seedVideos(t, videos, 3)
		p := newTestPath("Go", vs[0], vs[1])
		require.NoError(t, repo.Create(ctx, p))

		p.Title = "Go, revised"
		p.SetSteps([]models.PathStep{{VideoID: vs[2].ID, Order: 1, WhyThis: "w", CheckpointQuestion: "q"}})
		require.NoError(t, repo.Update(ctx, p, true))

		got, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Go, revised", got.Title)
		require.Len(t, got.Steps, 1)
		assert.Equal(t, vs[2].ID, got.Steps[0].VideoID)
	})

	t.Run("keeps steps when not replacing", func(t *testing.T) {
		td.TruncateTables(t)
		vs := seedVideos(t, videos, 2)
		p := newTestPath("Go", vs...)
		require.NoError(t, repo.Create(ctx, p))

		p.IsPublished = false
		p.Steps = nil
		require.NoError(t, repo.Update(ctx, p, false))

		got, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, got.IsPublished)
		assert.Len(t, got.Steps, 2)
	})

	t.Run("failed step replacement keeps old steps", func(t *testing.T) {
		td.TruncateTables(t)
		vs := seedVideos(t, videos, 1)
		p := newTestPath("Go", vs...)
		require.NoError(t, repo.Create(ctx, p))

		p.SetSteps([]models.PathStep{{VideoID: uuid.New(), Order: 1, WhyThis: "w", CheckpointQuestion: "q"}})
		err := repo.Update(ctx, p, true)
		assert.True(t, db.IsForeignKey(err))

		got, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, got.Steps, 1)
		assert.Equal(t, vs[0].ID, got.Steps[0].VideoID)
	})

	t.Run("missing path", func(t *testing.T) {
		err := repo.Update(ctx, newTestPath("ghost"), false)
		assert.True(t, db.IsNotFound(err))
		assert.True(t, db.IsNotFound(repo.Delete(ctx, uuid.New())))
	})

	t.Run("deleting a video removes its steps", func(t *testing.T) {
		td.TruncateTables(t)
		vs := seedVideos(t, videos, 2)
		p := newTestPath("Go", vs...)
		require.NoError(t, repo.Create(ctx, p))

		require.NoError(t, videos.Delete(ctx, vs[0].ID))

		got, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.StepCount)
		require.Len(t, got.Steps, 1)
		assert.Equal(t, vs[1].ID, got.Steps[0].VideoID)
	})

	t.Run("deleting a path removes its steps", func(t *testing.T) {
		td.TruncateTables(t)
		vs := seedVideos(t, videos, 1)
		p := newTestPath("Go", vs...)
		require.NoError(t, repo.Create(ctx, p))

		require.NoError(t, repo.Delete(ctx, p.ID))

		var steps int
		require.NoError(t, td.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM path_steps`).Scan(&steps))
		assert.Zero(t, steps)
	})
}
