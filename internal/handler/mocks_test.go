package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/beginner-catalog/catalog-service-go/internal/bci"
	dbmodels "github.com/beginner-catalog/catalog-service-go/internal/db/models"
	"github.com/beginner-catalog/catalog-service-go/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockVideoService struct {
	mock.Mock
}

func (m *mockVideoService) ListCatalog(ctx context.Context, q models.CatalogQuery) (*models.VideoListResponse, error) {
	args := m.Called(ctx, q)
	resp, _ := args.Get(0).(*models.VideoListResponse)
	return resp, args.Error(1)
}

func (m *mockVideoService) GetCatalogVideo(ctx context.Context, id uuid.UUID) (*models.VideoDetailResponse, error) {
	args := m.Called(ctx, id)
	resp, _ := args.Get(0).(*models.VideoDetailResponse)
	return resp, args.Error(1)
}

func (m *mockVideoService) ListAdmin(ctx context.Context, query string, page, limit int) (*models.VideoListResponse, error) {
	args := m.Called(ctx, query, page, limit)
	resp, _ := args.Get(0).(*models.VideoListResponse)
	return resp, args.Error(1)
}

func (m *mockVideoService) Get(ctx context.Context, id uuid.UUID) (*dbmodels.Video, error) {
	args := m.Called(ctx, id)
	video, _ := args.Get(0).(*dbmodels.Video)
	return video, args.Error(1)
}

func (m *mockVideoService) Create(ctx context.Context, req *models.CreateVideoRequest) (*dbmodels.Video, error) {
	args := m.Called(ctx, req)
	video, _ := args.Get(0).(*dbmodels.Video)
	return video, args.Error(1)
}

func (m *mockVideoService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateVideoRequest) (*dbmodels.Video, error) {
	args := m.Called(ctx, id, req)
	video, _ := args.Get(0).(*dbmodels.Video)
	return video, args.Error(1)
}

func (m *mockVideoService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockVideoService) ListTags(ctx context.Context) (*models.TagListResponse, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(*models.TagListResponse)
	return resp, args.Error(1)
}

type mockPathService struct {
	mock.Mock
}

func (m *mockPathService) ListPublished(ctx context.Context, page, limit int) (*models.PathListResponse, error) {
	args := m.Called(ctx, page, limit)
	resp, _ := args.Get(0).(*models.PathListResponse)
	return resp, args.Error(1)
}

func (m *mockPathService) ListAdmin(ctx context.Context, page, limit int) (*models.PathListResponse, error) {
	args := m.Called(ctx, page, limit)
	resp, _ := args.Get(0).(*models.PathListResponse)
	return resp, args.Error(1)
}

func (m *mockPathService) GetPublished(ctx context.Context, id uuid.UUID) (*dbmodels.Path, error) {
	args := m.Called(ctx, id)
	path, _ := args.Get(0).(*dbmodels.Path)
	return path, args.Error(1)
}

func (m *mockPathService) Get(ctx context.Context, id uuid.UUID) (*dbmodels.Path, error) {
	args := m.Called(ctx, id)
	path, _ := args.Get(0).(*dbmodels.Path)
	return path, args.Error(1)
}

func (m *mockPathService) Create(ctx context.Context, req *models.CreatePathRequest) (*dbmodels.Path, error) {
	args := m.Called(ctx, req)
	path, _ := args.Get(0).(*dbmodels.Path)
	return path, args.Error(1)
}

func (m *mockPathService) Update(ctx context.Context, id uuid.UUID, req *models.UpdatePathRequest) (*dbmodels.Path, error) {
	args := m.Called(ctx, id, req)
	path, _ := args.Get(0).(*dbmodels.Path)
	return path, args.Error(1)
}

func (m *mockPathService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) EnqueueSummarize(ctx context.Context, videoID, transcript string) (string, error) {
	args := m.Called(ctx, videoID, transcript)
	return args.String(0), args.Error(1)
}

type mockWeightStore struct {
	mock.Mock
}

func (m *mockWeightStore) Load(ctx context.Context) (bci.Weights, error) {
	args := m.Called(ctx)
	w, _ := args.Get(0).(bci.Weights)
	return w, args.Error(1)
}

func (m *mockWeightStore) Save(ctx context.Context, w bci.Weights) error {
	return m.Called(ctx, w).Error(0)
}

type mockRecalculator struct {
	mock.Mock
}

func (m *mockRecalculator) RecalculateAll(ctx context.Context) (*models.RecalculationResult, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(*models.RecalculationResult)
	return r, args.Error(1)
}

type mockImporter struct {
	mock.Mock
}

func (m *mockImporter) Import(ctx context.Context, entries []models.ImportEntry) (*models.ImportResult, error) {
	args := m.Called(ctx, entries)
	r, _ := args.Get(0).(*models.ImportResult)
	return r, args.Error(1)
}

type mockLookup struct {
	mock.Mock
}

func (m *mockLookup) FetchVideoMetaByURL(ctx context.Context, rawURL string) (*models.VideoMeta, error) {
	args := m.Called(ctx, rawURL)
	meta, _ := args.Get(0).(*models.VideoMeta)
	return meta, args.Error(1)
}

// testAPI wires the handlers onto a router the same way the server does.
type testAPI struct {
	videos   *mockVideoService
	queue    *mockQueue
	weights  *mockWeightStore
	recalc   *mockRecalculator
	importer *mockImporter
	lookup   *mockLookup
	paths    *mockPathService
	engine   *gin.Engine
}

func newTestAPI() *testAPI {
	api := &testAPI{
		videos:   &mockVideoService{},
		queue:    &mockQueue{},
		weights:  &mockWeightStore{},
		recalc:   &mockRecalculator{},
		importer: &mockImporter{},
		lookup:   &mockLookup{},
		paths:    &mockPathService{},
	}

	r := gin.New()
	vh := NewVideoHandler(api.videos, api.queue)
	bh := NewBCIHandler(api.weights, api.recalc)
	ih := NewImportHandler(api.importer, api.lookup)
	ph := NewPathHandler(api.paths)

	r.GET("/api/v1/videos", vh.ListCatalog)
	r.GET("/api/v1/videos/:id", vh.GetCatalogVideo)
	r.GET("/api/v1/tags", vh.ListTags)
	r.GET("/api/v1/paths", ph.List)
	r.GET("/api/v1/paths/:id", ph.Get)
	r.GET("/api/v1/admin/paths", ph.ListAdmin)
	r.POST("/api/v1/admin/paths", ph.Create)
	r.GET("/api/v1/admin/paths/:id", ph.GetAdmin)
	r.PATCH("/api/v1/admin/paths/:id", ph.Update)
	r.DELETE("/api/v1/admin/paths/:id", ph.Delete)
	r.GET("/api/v1/admin/videos", vh.ListAdmin)
	r.POST("/api/v1/admin/videos", vh.Create)
	r.GET("/api/v1/admin/videos/:id", vh.GetAdmin)
	r.PATCH("/api/v1/admin/videos/:id", vh.Update)
	r.DELETE("/api/v1/admin/videos/:id", vh.Delete)
	r.POST("/api/v1/admin/videos/:id/summarize", vh.Summarize)
	r.GET("/api/v1/admin/bci/weights", bh.GetWeights)
	r.PUT("/api/v1/admin/bci/weights", bh.PutWeights)
	r.POST("/api/v1/admin/bci/recalculate", bh.Recalculate)
	r.POST("/api/v1/admin/import", ih.Import)
	r.POST("/api/v1/admin/youtube-lookup", ih.LookupYouTube)

	api.engine = r
	return api
}

func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func samplePath(published bool) *dbmodels.Path {
	p := dbmodels.NewPath("Go from zero", "new programmers", "write a CLI", 90)
	p.IsPublished = published
	p.SetSteps([]dbmodels.PathStep{
		{VideoID: uuid.New(), Order: 1, WhyThis: "syntax basics", CheckpointQuestion: "What is a slice?"},
	})
	return p
}

func sampleVideo(score int) *dbmodels.Video {
	v := dbmodels.NewVideo("https://www.youtube.com/watch?v=abc", "Go for beginners", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	v.BCIScore = score
	return v
}
