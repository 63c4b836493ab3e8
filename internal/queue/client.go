package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/beginner-catalog/catalog-service-go/pkg/logger"
)

// Task options shared by every enqueued summarization.
const (
	SummarizeMaxRetry = 3
	SummarizeTimeout  = 5 * time.Minute
	DefaultQueue      = "default"
)

// Client wraps asynq client for enqueueing tasks
type Client struct {
	asynqClient *asynq.Client
	log         *zap.Logger
}

// NewClient creates a new queue client
func NewClient(redisAddr string) (*Client, error) {
	// Parse Redis URL to extract connection details (host, password, db, TLS)
	redisOpt, err := ParseRedisURL(redisAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &Client{
		asynqClient: asynq.NewClient(redisOpt),
		log:         logger.Named("queue"),
	}, nil
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.asynqClient.Close()
}

// EnqueueSummarize enqueues a transcript summarization and returns the task ID.
func (c *Client) EnqueueSummarize(ctx context.Context, videoID, transcript string) (string, error) {
	payload, err := NewSummarizeTask(videoID, transcript, map[string]interface{}{
		"source":      "admin",
		"enqueued_at": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create task payload: %w", err)
	}

	payloadBytes, err := payload.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeSummarizeVideo, payloadBytes)

	info, err := c.asynqClient.EnqueueContext(ctx, task,
		asynq.MaxRetry(SummarizeMaxRetry),
		asynq.Timeout(SummarizeTimeout),
		asynq.Queue(DefaultQueue),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.log.Info("Enqueued summarization",
		zap.String("videoId", videoID),
		zap.String("taskId", info.ID),
		zap.Int("transcriptBytes", len(transcript)),
	)

	return info.ID, nil
}
