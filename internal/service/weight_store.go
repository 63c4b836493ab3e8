package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/beginner-catalog/catalog-service-go/internal/bci"
	"github.com/beginner-catalog/catalog-service-go/internal/db"
	"github.com/beginner-catalog/catalog-service-go/internal/db/repository"
	"github.com/beginner-catalog/catalog-service-go/internal/metrics"
	"github.com/beginner-catalog/catalog-service-go/pkg/logger"
)

// WeightsSettingKey is the app_settings key holding the active weight set.
const WeightsSettingKey = "bci-weights"

// WeightSource supplies the active weight set.
type WeightSource interface {
	Load(ctx context.Context) (bci.Weights, error)
}

// WeightStore persists the administrator-editable weight set. Every Load
// reads storage; nothing is cached between calls.
type WeightStore struct {
	settings repository.SettingRepository
	events   notifier
	log      *zap.Logger
}

// NewWeightStore creates a WeightStore backed by settings.
func NewWeightStore(settings repository.SettingRepository) *WeightStore {
	log := logger.Named("weight_store")
	return &WeightStore{
		settings: settings,
		events:   newNotifier(nil, nil, log),
		log:      log,
	}
}

// WithEvents makes Save announce every accepted weight set on publisher.
func (s *WeightStore) WithEvents(publisher EventPublisher, m *metrics.Metrics) *WeightStore {
	s.events = newNotifier(publisher, m, s.log)
	return s
}

// Load returns the effective weights. A missing document yields the defaults;
// a document written before some keys existed is completed from the defaults;
// an unreadable document is logged and replaced by the defaults. Storage
// failures are returned.
func (s *WeightStore) Load(ctx context.Context) (bci.Weights, error) {
	setting, err := s.settings.Get(ctx, WeightsSettingKey)
	if err != nil {
		if db.IsNotFound(err) {
			return bci.DefaultWeights(), nil
		}
		return bci.Weights{}, fmt.Errorf("load weights: %w", err)
	}

	w, err := bci.UnmarshalStored([]byte(setting.Value))
	if err != nil {
		s.log.Warn("Stored BCI weights are unreadable, using defaults",
			zap.String("key", WeightsSettingKey),
			zap.Error(err),
		)
	}
	return w, nil
}

// Save validates w and replaces the stored weight set. An invalid set is
// rejected with a *ValidationError and storage is left untouched.
func (s *WeightStore) Save(ctx context.Context, w bci.Weights) error {
	if err := w.Validate(); err != nil {
		return validationFromWeights(err)
	}

	value, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}

	if _, err := s.settings.Upsert(ctx, WeightsSettingKey, string(value)); err != nil {
		return fmt.Errorf("save weights: %w", err)
	}

	s.log.Info("BCI weights updated", zap.Float64("sum", w.Sum()))
	s.events.notify(ctx, EventWeightsUpdated, w)
	return nil
}
