package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/beginner-catalog/catalog-service-go/internal/metrics"
)

// FailureHook is the asynq error handler of the worker. It logs every failed
// attempt and counts tasks whose retries are used up.
type FailureHook struct {
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewFailureHook creates a FailureHook.
func NewFailureHook(log *zap.Logger, m *metrics.Metrics) *FailureHook {
	return &FailureHook{metrics: m, log: log}
}

// HandleError implements asynq.ErrorHandler.
func (f *FailureHook) HandleError(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		maxRetry = SummarizeMaxRetry
	}
	taskID, _ := asynq.GetTaskID(ctx)
	f.record(task.Type(), taskID, retried, maxRetry, err)
}

// record reports whether asynq will not run the task again. SkipRetry errors
// are archived at once and were already counted by the handler.
func (f *FailureHook) record(taskType, taskID string, retried, maxRetry int, err error) bool {
	fields := []zap.Field{
		zap.String("type", taskType),
		zap.String("taskId", taskID),
		zap.Int("retried", retried),
		zap.Int("maxRetry", maxRetry),
		zap.Error(err),
	}

	if errors.Is(err, asynq.SkipRetry) {
		f.log.Warn("Task dropped without retry", fields...)
		return true
	}
	if retried >= maxRetry {
		f.metrics.SummaryProcessed(OutcomeExhausted)
		f.log.Error("Task failed permanently", fields...)
		return true
	}
	f.log.Warn("Task failed, will retry", fields...)
	return false
}

// asynqLogger routes asynq's internal logging through zap.
type asynqLogger struct {
	s *zap.SugaredLogger
}

func newAsynqLogger(log *zap.Logger) asynqLogger {
	return asynqLogger{s: log.Sugar()}
}

func (l asynqLogger) Debug(args ...interface{}) { l.s.Debug(args...) }
func (l asynqLogger) Info(args ...interface{})  { l.s.Info(args...) }
func (l asynqLogger) Warn(args ...interface{})  { l.s.Warn(args...) }
func (l asynqLogger) Error(args ...interface{}) { l.s.Error(args...) }
func (l asynqLogger) Fatal(args ...interface{}) { l.s.Fatal(fmt.Sprint(args...)) }
