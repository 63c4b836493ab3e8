package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	dbmodels "github.com/beginner-catalog/catalog-service-go/internal/db/models"
	"github.com/beginner-catalog/catalog-service-go/internal/metrics"
	"github.com/beginner-catalog/catalog-service-go/internal/models"
	"github.com/beginner-catalog/catalog-service-go/internal/service"
	"github.com/beginner-catalog/catalog-service-go/pkg/logger"
)

// Summary outcomes recorded in metrics.
const (
	OutcomeApplied   = "applied"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
	OutcomeExhausted = "exhausted"
)

// Summarizer turns a transcript into a structured summary.
type Summarizer interface {
	Summarize(ctx context.Context, title, transcript string) (*models.VideoSummary, error)
}

// VideoStore is the part of the video service a summarization needs.
type VideoStore interface {
	Get(ctx context.Context, id uuid.UUID) (*dbmodels.Video, error)
	ApplySummary(ctx context.Context, id uuid.UUID, summary *models.VideoSummary) (*dbmodels.Video, error)
}

// SummarizeHandler handles transcript summarization tasks
type SummarizeHandler struct {
	summarizer Summarizer
	videos     VideoStore
	metrics    *metrics.Metrics
	log        *zap.Logger
}

// NewSummarizeHandler creates a new summarization task handler
func NewSummarizeHandler(summarizer Summarizer, videos VideoStore, m *metrics.Metrics) *SummarizeHandler {
	return &SummarizeHandler{
		summarizer: summarizer,
		videos:     videos,
		metrics:    m,
		log:        logger.Named("summarize"),
	}
}

// ProcessTask implements asynq.Handler. Malformed payloads and unknown videos
// are not retried; summarizer and storage failures are.
func (h *SummarizeHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := UnmarshalSummarizePayload(task.Payload())
	if err != nil {
		h.metrics.SummaryProcessed(OutcomeSkipped)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	taskID, _ := asynq.GetTaskID(ctx)
	log := h.log.With(zap.String("videoId", payload.VideoID), zap.String("taskId", taskID))

	id, err := uuid.Parse(payload.VideoID)
	if err != nil {
		h.metrics.SummaryProcessed(OutcomeSkipped)
		return fmt.Errorf("%w: invalid video ID %q", asynq.SkipRetry, payload.VideoID)
	}

	log.Info("Processing summarization")

	video, err := h.videos.Get(ctx, id)
	if err != nil {
		return h.fail(log, "failed to load video", err)
	}

	summary, err := h.summarizer.Summarize(ctx, video.Title, payload.Transcript)
	if err != nil {
		h.metrics.SummaryProcessed(OutcomeFailed)
		log.Warn("Summarizer failed", zap.Error(err))
		return fmt.Errorf("failed to summarize transcript: %w", err)
	}

	updated, err := h.videos.ApplySummary(ctx, id, summary)
	if err != nil {
		return h.fail(log, "failed to apply summary", err)
	}

	h.metrics.SummaryProcessed(OutcomeApplied)
	log.Info("Applied summary",
		zap.String("difficulty", string(updated.Difficulty)),
		zap.Int("bciScore", updated.BCIScore),
	)
	return nil
}

func (h *SummarizeHandler) fail(log *zap.Logger, msg string, err error) error {
	if errors.Is(err, service.ErrVideoNotFound) {
		h.metrics.SummaryProcessed(OutcomeSkipped)
		log.Warn("Video no longer exists, dropping task")
		return fmt.Errorf("%w: %s: %v", asynq.SkipRetry, msg, err)
	}
	h.metrics.SummaryProcessed(OutcomeFailed)
	log.Error(msg, zap.Error(err))
	return fmt.Errorf("%s: %w", msg, err)
}

// Server wraps asynq server for processing tasks
type Server struct {
	asynqServer *asynq.Server
	mux         *asynq.ServeMux
	log         *zap.Logger
}

// NewServer creates a new task processing server
func NewServer(redisAddr string, concurrency int, handler *SummarizeHandler, failures *FailureHook) (*Server, error) {
	// Parse Redis URL to extract connection details (host, password, db, TLS)
	redisOpt, err := ParseRedisURL(redisAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				DefaultQueue: 10,
			},
			ErrorHandler: failures,
			Logger:       newAsynqLogger(logger.Named("asynq")),
		},
	)

	mux := asynq.NewServeMux()
	mux.Handle(TypeSummarizeVideo, handler)

	return &Server{
		asynqServer: srv,
		mux:         mux,
		log:         logger.Named("worker"),
	}, nil
}

// Start starts the server
func (s *Server) Start() error {
	s.log.Info("Starting task processing server")
	return s.asynqServer.Start(s.mux)
}

// Stop gracefully stops the server
func (s *Server) Stop() {
	s.log.Info("Shutting down task processing server")
	s.asynqServer.Shutdown()
}
