package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
	"github.com/gin-gonic/gin"
)

// StatusFor maps an error kind to its HTTP status
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindPreconditionFailed, domain.KindConflict:
		return http.StatusConflict
	case domain.KindUpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": msg}. Classified errors answer with their own
// message, unclassified ones with fallback. Server-side failures are logged.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	status := StatusFor(err)

	msg := fallback
	var de *domain.Error
	if status != http.StatusInternalServerError && errors.As(err, &de) && de.Message != "" {
		msg = de.Message
	}

	if status >= http.StatusInternalServerError {
		logger.Error(fallback,
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
		)
	}

	c.JSON(status, gin.H{"error": msg})
}
