// Package handler provides HTTP request handlers for the application.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/beginner-catalog/catalog-service-go/internal/bci"
	"github.com/beginner-catalog/catalog-service-go/internal/models"
	"github.com/beginner-catalog/catalog-service-go/internal/service"
	"github.com/beginner-catalog/catalog-service-go/internal/service/quota"
	"github.com/beginner-catalog/catalog-service-go/internal/service/youtube"
	"github.com/beginner-catalog/catalog-service-go/pkg/logger"
)

func respond(c *gin.Context, status int, message string, fields []bci.FieldError) {
	c.JSON(status, models.ErrorResponse{
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
		Fields:    fields,
	})
}

func badRequest(c *gin.Context, message string) {
	logger.L().Warn("Invalid request",
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
	)
	respond(c, http.StatusBadRequest, message, nil)
}

// handleError maps service errors to HTTP responses.
func handleError(c *gin.Context, err error) {
	var (
		verr    *service.ValidationError
		weights *bci.ValidationError
		perr    *service.ProcessingError
	)

	switch {
	case errors.As(err, &verr):
		logger.L().Warn("Validation error", zap.Error(err), zap.String("path", c.Request.URL.Path))
		respond(c, http.StatusBadRequest, verr.Message, verr.Fields)
	case errors.As(err, &weights):
		logger.L().Warn("Validation error", zap.Error(err), zap.String("path", c.Request.URL.Path))
		respond(c, http.StatusBadRequest, weights.Error(), weights.Fields)
	case errors.Is(err, service.ErrVideoNotFound):
		respond(c, http.StatusNotFound, "Video not found", nil)
	case errors.Is(err, service.ErrPathNotFound):
		respond(c, http.StatusNotFound, "Path not found", nil)
	case errors.Is(err, service.ErrDuplicateVideo):
		respond(c, http.StatusConflict, "A video with this URL already exists", nil)
	case errors.Is(err, youtube.ErrInvalidURL):
		respond(c, http.StatusBadRequest, "Not a valid YouTube video URL", nil)
	case errors.Is(err, youtube.ErrVideoNotFound):
		respond(c, http.StatusNotFound, "Video not found on YouTube", nil)
	case errors.Is(err, quota.ErrQuotaExhausted):
		logger.L().Warn("YouTube quota exhausted", zap.String("path", c.Request.URL.Path))
		respond(c, http.StatusTooManyRequests, "YouTube API quota exhausted for today", nil)
	case errors.As(err, &perr):
		logger.L().Error("Processing error", zap.Error(err), zap.String("path", c.Request.URL.Path))
		respond(c, http.StatusInternalServerError, perr.Message, nil)
	default:
		logger.L().Error("Unexpected error", zap.Error(err), zap.String("path", c.Request.URL.Path))
		respond(c, http.StatusInternalServerError, "An unexpected error occurred", nil)
	}
}
