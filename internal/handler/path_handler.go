package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	dbmodels "github.com/beginner-catalog/catalog-service-go/internal/db/models"
	"github.com/beginner-catalog/catalog-service-go/internal/models"
)

// PathService is the learning path use-case layer.
type PathService interface {
	ListPublished(ctx context.Context, page, limit int) (*models.PathListResponse, error)
	ListAdmin(ctx context.Context, page, limit int) (*models.PathListResponse, error)
	GetPublished(ctx context.Context, id uuid.UUID) (*dbmodels.Path, error)
	Get(ctx context.Context, id uuid.UUID) (*dbmodels.Path, error)
	Create(ctx context.Context, req *models.CreatePathRequest) (*dbmodels.Path, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdatePathRequest) (*dbmodels.Path, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PathHandler serves the public and administrator learning path routes.
type PathHandler struct {
	paths PathService
}

// NewPathHandler creates a PathHandler.
func NewPathHandler(paths PathService) *PathHandler {
	return &PathHandler{paths: paths}
}

// List handles GET /paths.
func (h *PathHandler) List(c *gin.Context) {
	page, limit, ok := pageParams(c)
	if !ok {
		return
	}

	resp, err := h.paths.ListPublished(c.Request.Context(), page, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles GET /paths/:id.
func (h *PathHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	path, err := h.paths.GetPublished(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PathResponse{Path: models.NewPathView(path)})
}

// ListAdmin handles GET /admin/paths.
func (h *PathHandler) ListAdmin(c *gin.Context) {
	page, limit, ok := pageParams(c)
	if !ok {
		return
	}

	resp, err := h.paths.ListAdmin(c.Request.Context(), page, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetAdmin handles GET /admin/paths/:id. Drafts are included.
func (h *PathHandler) GetAdmin(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	path, err := h.paths.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PathResponse{Path: models.NewPathView(path)})
}

// Create handles POST /admin/paths.
func (h *PathHandler) Create(c *gin.Context) {
	var req models.CreatePathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	path, err := h.paths.Create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.PathResponse{Path: models.NewPathView(path)})
}

// Update handles PATCH /admin/paths/:id.
func (h *PathHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req models.UpdatePathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	path, err := h.paths.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PathResponse{Path: models.NewPathView(path)})
}

// Delete handles DELETE /admin/paths/:id.
func (h *PathHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.paths.Delete(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DeleteResponse{Success: true, ID: id.String()})
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid path id")
		return uuid.Nil, false
	}
	return id, true
}
