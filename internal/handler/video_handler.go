package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	dbmodels "github.com/beginner-catalog/catalog-service-go/internal/db/models"
	"github.com/beginner-catalog/catalog-service-go/internal/models"
	"github.com/beginner-catalog/catalog-service-go/pkg/logger"
)

// VideoService is the video use-case layer the handlers depend on.
type VideoService interface {
	ListCatalog(ctx context.Context, q models.CatalogQuery) (*models.VideoListResponse, error)
	GetCatalogVideo(ctx context.Context, id uuid.UUID) (*models.VideoDetailResponse, error)
	ListAdmin(ctx context.Context, query string, page, limit int) (*models.VideoListResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dbmodels.Video, error)
	Create(ctx context.Context, req *models.CreateVideoRequest) (*dbmodels.Video, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateVideoRequest) (*dbmodels.Video, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListTags(ctx context.Context) (*models.TagListResponse, error)
}

// SummaryQueue enqueues transcript summarizations.
type SummaryQueue interface {
	EnqueueSummarize(ctx context.Context, videoID, transcript string) (string, error)
}

// VideoHandler serves the public catalog and administrator video routes.
type VideoHandler struct {
	videos VideoService
	queue  SummaryQueue
}

// NewVideoHandler creates a VideoHandler. queue may be nil, which disables
// summarization requests.
func NewVideoHandler(videos VideoService, queue SummaryQueue) *VideoHandler {
	return &VideoHandler{videos: videos, queue: queue}
}

// ListCatalog handles GET /videos.
func (h *VideoHandler) ListCatalog(c *gin.Context) {
	page, limit, ok := pageParams(c)
	if !ok {
		return
	}

	q := models.CatalogQuery{
		Level:     c.Query("level"),
		Durations: splitList(c.Query("duration")),
		Language:  c.Query("language"),
		Tags:      splitList(c.Query("tags")),
		Query:     strings.TrimSpace(c.Query("q")),
		Sort:      c.Query("sort"),
		Page:      page,
		Limit:     limit,
	}

	resp, err := h.videos.ListCatalog(c.Request.Context(), q)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetCatalogVideo handles GET /videos/:id.
func (h *VideoHandler) GetCatalogVideo(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}

	resp, err := h.videos.GetCatalogVideo(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListTags handles GET /tags.
func (h *VideoHandler) ListTags(c *gin.Context) {
	resp, err := h.videos.ListTags(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListAdmin handles GET /admin/videos.
func (h *VideoHandler) ListAdmin(c *gin.Context) {
	page, limit, ok := pageParams(c)
	if !ok {
		return
	}

	resp, err := h.videos.ListAdmin(c.Request.Context(), strings.TrimSpace(c.Query("q")), page, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetAdmin handles GET /admin/videos/:id. Unpublished videos are included.
func (h *VideoHandler) GetAdmin(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}

	video, err := h.videos.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.VideoResponse{Video: models.NewVideoView(video)})
}

// Create handles POST /admin/videos.
func (h *VideoHandler) Create(c *gin.Context) {
	var req models.CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	video, err := h.videos.Create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	logger.L().Info("Video created",
		zap.String("videoId", video.ID.String()),
		zap.Int("bciScore", video.BCIScore),
	)
	c.JSON(http.StatusCreated, models.VideoResponse{Video: models.NewVideoView(video)})
}

// Update handles PATCH /admin/videos/:id.
func (h *VideoHandler) Update(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}

	var req models.UpdateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	video, err := h.videos.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.VideoResponse{Video: models.NewVideoView(video)})
}

// Delete handles DELETE /admin/videos/:id.
func (h *VideoHandler) Delete(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}

	if err := h.videos.Delete(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DeleteResponse{Success: true, ID: id.String()})
}

// Summarize handles POST /admin/videos/:id/summarize.
func (h *VideoHandler) Summarize(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}

	if h.queue == nil {
		respond(c, http.StatusServiceUnavailable, "Summarization is not configured", nil)
		return
	}

	var req models.SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		badRequest(c, "transcript must not be blank")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.videos.Get(ctx, id); err != nil {
		handleError(c, err)
		return
	}

	taskID, err := h.queue.EnqueueSummarize(ctx, id.String(), req.Transcript)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, models.SummarizeAccepted{
		VideoID: id.String(),
		TaskID:  taskID,
		Status:  "queued",
	})
}

func videoID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid video id")
		return uuid.Nil, false
	}
	return id, true
}

// pageParams reads page and limit. Absent values are returned as zero so the
// service applies its defaults.
func pageParams(c *gin.Context) (int, int, bool) {
	page, err := intParam(c, "page")
	if err != nil {
		badRequest(c, "page must be an integer")
		return 0, 0, false
	}
	limit, err := intParam(c, "limit")
	if err != nil {
		badRequest(c, "limit must be an integer")
		return 0, 0, false
	}
	return page, limit, true
}

func intParam(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
