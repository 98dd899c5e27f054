package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"sedcat-backend/pkg/api"
	appErrors "sedcat-backend/pkg/errors"
)

// handleServiceError maps application errors onto HTTP status codes. Only
// internal errors are logged at error level; client mistakes stay at debug.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	switch {
	case appErrors.IsValidation(err):
		logger.Debug("Request validation failed", zap.Error(err))
		api.Error(w, http.StatusBadRequest, err.Error())
	case appErrors.IsNotFound(err):
		logger.Debug("Resource not found", zap.Error(err))
		api.Error(w, http.StatusNotFound, err.Error())
	case appErrors.IsUnavailable(err):
		logger.Warn("Dependency unavailable", zap.Error(err))
		api.Error(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
	default:
		logger.Error("Request failed", zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
