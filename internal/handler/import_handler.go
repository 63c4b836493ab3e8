package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/beginner-catalog/catalog-service-go/internal/models"
)

// Importer runs a bulk import.
type Importer interface {
	Import(ctx context.Context, entries []models.ImportEntry) (*models.ImportResult, error)
}

// MetadataLookup fetches YouTube metadata for a video URL.
type MetadataLookup interface {
	FetchVideoMetaByURL(ctx context.Context, rawURL string) (*models.VideoMeta, error)
}

// ImportHandler serves the bulk import and metadata lookup routes.
type ImportHandler struct {
	importer Importer
	lookup   MetadataLookup
}

// NewImportHandler creates an ImportHandler. lookup may be nil when no
// YouTube API key is configured.
func NewImportHandler(importer Importer, lookup MetadataLookup) *ImportHandler {
	return &ImportHandler{importer: importer, lookup: lookup}
}

// Import handles POST /admin/import. The body is either an array of entries
// or an object with a videos array.
func (h *ImportHandler) Import(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		badRequest(c, "Failed to read request body")
		return
	}

	entries, err := decodeImportBody(body)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.importer.Import(c.Request.Context(), entries)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// LookupYouTube handles POST /admin/youtube-lookup.
func (h *ImportHandler) LookupYouTube(c *gin.Context) {
	if h.lookup == nil {
		respond(c, http.StatusServiceUnavailable, "YouTube API is not configured", nil)
		return
	}

	var req models.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	meta, err := h.lookup.FetchVideoMetaByURL(c.Request.Context(), req.URL)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

func decodeImportBody(body []byte) ([]models.ImportEntry, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("request body is empty")
	}

	var entries []models.ImportEntry
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("invalid import payload: %w", err)
		}
	} else {
		var req models.ImportRequest
		if err := json.Unmarshal(trimmed, &req); err != nil {
			return nil, fmt.Errorf("invalid import payload: %w", err)
		}
		if req.Videos == nil {
			return nil, fmt.Errorf("invalid import payload: videos is required")
		}
		entries = req.Videos
	}

	for i := range entries {
		if err := binding.Validator.ValidateStruct(&entries[i]); err != nil {
			return nil, fmt.Errorf("invalid entry %d: %w", i, err)
		}
	}
	return entries, nil
}
