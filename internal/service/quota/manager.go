// Package quota keeps YouTube Data API consumption under a daily budget.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/beginner-catalog/catalog-service-go/internal/db/models"
	"github.com/beginner-catalog/catalog-service-go/internal/db/repository"
	"github.com/beginner-catalog/catalog-service-go/pkg/logger"
)

// Default budget of a YouTube Data API v3 project.
const (
	DefaultDailyLimit       = 10000
	DefaultThresholdPercent = 90
)

// Unit costs of the calls made by the metadata lookup.
const (
	CostVideosList   = 1
	CostCaptionsList = 50
)

// ErrQuotaExhausted is returned when a call would exceed the threshold.
var ErrQuotaExhausted = errors.New("youtube api quota threshold reached")

// Manager handles YouTube API quota management.
type Manager struct {
	repo             repository.QuotaRepository
	dailyLimit       int
	thresholdPercent int
	log              *zap.Logger
	now              func() time.Time
}

// NewManager creates a new quota manager.
func NewManager(repo repository.QuotaRepository, dailyLimit, thresholdPercent int) *Manager {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}
	if thresholdPercent <= 0 || thresholdPercent > 100 {
		thresholdPercent = DefaultThresholdPercent
	}

	return &Manager{
		repo:             repo,
		dailyLimit:       dailyLimit,
		thresholdPercent: thresholdPercent,
		log:              logger.Named("quota"),
		now:              time.Now,
	}
}

// Threshold is the number of units after which calls are refused.
func (m *Manager) Threshold() int {
	return m.dailyLimit * m.thresholdPercent / 100
}

// Reserve checks that cost more units fit under today's threshold. It
// returns ErrQuotaExhausted when they do not.
func (m *Manager) Reserve(ctx context.Context, cost int) error {
	usage, err := m.repo.GetUsage(ctx, m.now())
	if err != nil {
		return fmt.Errorf("failed to get quota usage: %w", err)
	}

	if usage.QuotaUsed+cost > m.Threshold() {
		m.log.Warn("Quota threshold reached",
			zap.Int("used", usage.QuotaUsed),
			zap.Int("required", cost),
			zap.Int("threshold", m.Threshold()),
		)
		return ErrQuotaExhausted
	}
	return nil
}

// Record adds the cost of a completed call.
func (m *Manager) Record(ctx context.Context, cost int, operation string) error {
	usage, err := m.repo.Increment(ctx, m.now(), cost, operation)
	if err != nil {
		return fmt.Errorf("failed to record quota usage: %w", err)
	}

	m.log.Debug("Quota used",
		zap.String("operation", operation),
		zap.Int("cost", cost),
		zap.Int("used", usage.QuotaUsed),
		zap.Int("limit", m.dailyLimit),
	)
	return nil
}

// Usage returns today's consumption.
func (m *Manager) Usage(ctx context.Context) (*models.APIQuotaUsage, error) {
	return m.repo.GetUsage(ctx, m.now())
}

// Remaining returns how many units are left before the threshold.
func (m *Manager) Remaining(ctx context.Context) (int, error) {
	usage, err := m.Usage(ctx)
	if err != nil {
		return 0, err
	}
	remaining := m.Threshold() - usage.QuotaUsed
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}
