package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beginner-catalog/catalog-service-go/internal/bci"
	"github.com/beginner-catalog/catalog-service-go/internal/models"
)

// WeightStore loads and persists the active weight set.
type WeightStore interface {
	Load(ctx context.Context) (bci.Weights, error)
	Save(ctx context.Context, w bci.Weights) error
}

// Recalculator rescores every stored video.
type Recalculator interface {
	RecalculateAll(ctx context.Context) (*models.RecalculationResult, error)
}

// BCIHandler serves the weight configuration and recalculation routes.
type BCIHandler struct {
	weights      WeightStore
	recalculator Recalculator
}

// NewBCIHandler creates a BCIHandler.
func NewBCIHandler(weights WeightStore, recalculator Recalculator) *BCIHandler {
	return &BCIHandler{weights: weights, recalculator: recalculator}
}

// GetWeights handles GET /admin/bci/weights.
func (h *BCIHandler) GetWeights(c *gin.Context) {
	w, err := h.weights.Load(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// PutWeights handles PUT /admin/bci/weights. The body must be a complete
// weight set; nothing is stored when any key is rejected.
func (h *BCIHandler) PutWeights(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, "Request body must be a JSON object of weights")
		return
	}

	w, err := bci.DecodeWeights(raw)
	if err != nil {
		handleError(c, err)
		return
	}

	if err := h.weights.Save(c.Request.Context(), w); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, w)
}

// Recalculate handles POST /admin/bci/recalculate.
func (h *BCIHandler) Recalculate(c *gin.Context) {
	result, err := h.recalculator.RecalculateAll(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
