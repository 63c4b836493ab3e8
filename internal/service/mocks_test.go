package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/beginner-catalog/catalog-service-go/internal/bci"
	dbmodels "github.com/beginner-catalog/catalog-service-go/internal/db/models"
	"github.com/beginner-catalog/catalog-service-go/internal/db/repository"
	"github.com/beginner-catalog/catalog-service-go/internal/models"
)

type mockVideoRepo struct {
	mock.Mock
}

func (m *mockVideoRepo) Create(ctx context.Context, video *dbmodels.Video) error {
	return m.Called(ctx, video).Error(0)
}

func (m *mockVideoRepo) GetByID(ctx context.Context, id uuid.UUID) (*dbmodels.Video, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*dbmodels.Video)
	return v, args.Error(1)
}

func (m *mockVideoRepo) GetByURL(ctx context.Context, url string) (*dbmodels.Video, error) {
	args := m.Called(ctx, url)
	v, _ := args.Get(0).(*dbmodels.Video)
	return v, args.Error(1)
}

func (m *mockVideoRepo) Update(ctx context.Context, video *dbmodels.Video) error {
	return m.Called(ctx, video).Error(0)
}

func (m *mockVideoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockVideoRepo) List(ctx context.Context, filters repository.VideoFilters) ([]*dbmodels.Video, int, error) {
	args := m.Called(ctx, filters)
	v, _ := args.Get(0).([]*dbmodels.Video)
	return v, args.Int(1), args.Error(2)
}

func (m *mockVideoRepo) ListRelated(ctx context.Context, id uuid.UUID, tags []string, limit int) ([]*dbmodels.Video, error) {
	args := m.Called(ctx, id, tags, limit)
	v, _ := args.Get(0).([]*dbmodels.Video)
	return v, args.Error(1)
}

func (m *mockVideoRepo) ListScoringInputs(ctx context.Context) ([]dbmodels.ScoringInput, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]dbmodels.ScoringInput)
	return v, args.Error(1)
}

func (m *mockVideoRepo) UpdateScores(ctx context.Context, updates []dbmodels.ScoreUpdate) error {
	return m.Called(ctx, updates).Error(0)
}

func (m *mockVideoRepo) ListTags(ctx context.Context) ([]dbmodels.TagCount, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]dbmodels.TagCount)
	return v, args.Error(1)
}

type mockPathRepo struct {
	mock.Mock
}

func (m *mockPathRepo) Create(ctx context.Context, path *dbmodels.Path) error {
	return m.Called(ctx, path).Error(0)
}

func (m *mockPathRepo) GetByID(ctx context.Context, id uuid.UUID) (*dbmodels.Path, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*dbmodels.Path)
	return p, args.Error(1)
}

func (m *mockPathRepo) List(ctx context.Context, filters repository.PathFilters) ([]*dbmodels.Path, int, error) {
	args := m.Called(ctx, filters)
	p, _ := args.Get(0).([]*dbmodels.Path)
	return p, args.Int(1), args.Error(2)
}

func (m *mockPathRepo) Update(ctx context.Context, path *dbmodels.Path, replaceSteps bool) error {
	return m.Called(ctx, path, replaceSteps).Error(0)
}

func (m *mockPathRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockSettingRepo struct {
	mock.Mock
}

func (m *mockSettingRepo) Get(ctx context.Context, key string) (*dbmodels.AppSetting, error) {
	args := m.Called(ctx, key)
	s, _ := args.Get(0).(*dbmodels.AppSetting)
	return s, args.Error(1)
}

func (m *mockSettingRepo) Upsert(ctx context.Context, key, value string) (*dbmodels.AppSetting, error) {
	args := m.Called(ctx, key, value)
	s, _ := args.Get(0).(*dbmodels.AppSetting)
	return s, args.Error(1)
}

// staticWeights always returns the same weight set.
type staticWeights struct {
	w   bci.Weights
	err error
}

func (s staticWeights) Load(context.Context) (bci.Weights, error) {
	return s.w, s.err
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetVideo(ctx context.Context, videoID string) ([]byte, error) {
	args := m.Called(ctx, videoID)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *mockCache) SetVideo(ctx context.Context, videoID string, data interface{}) error {
	return m.Called(ctx, videoID, data).Error(0)
}

func (m *mockCache) InvalidateVideo(ctx context.Context, videoID string) error {
	return m.Called(ctx, videoID).Error(0)
}

func (m *mockCache) InvalidateAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// recordingPublisher keeps every published event in memory.
type recordingPublisher struct {
	events []publishedEvent
	err    error
}

type publishedEvent struct {
	routingKey string
	data       interface{}
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, data interface{}) error {
	p.events = append(p.events, publishedEvent{routingKey: routingKey, data: data})
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) keys() []string {
	keys := make([]string, 0, len(p.events))
	for _, e := range p.events {
		keys = append(keys, e.routingKey)
	}
	return keys
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchVideoMetaByURL(ctx context.Context, rawURL string) (*models.VideoMeta, error) {
	args := m.Called(ctx, rawURL)
	meta, _ := args.Get(0).(*models.VideoMeta)
	return meta, args.Error(1)
}
