package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"docqa-backend/internal/models"
	"docqa-backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(message string) models.ErrorResponse {
	return models.ErrorResponse{Error: message}
}

// statusFor maps a service error onto the status and client-visible message.
func statusFor(err error) (int, string) {
	var (
		validationErr  *services.ValidationError
		unsupportedErr *services.UnsupportedTypeError
		emptyErr       *services.ExtractionEmptyError
		extractErr     *services.ExtractionFailedError
		apiErr         *services.APIError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Message
	case errors.As(err, &unsupportedErr):
		return http.StatusBadRequest, unsupportedErr.Error()
	case errors.As(err, &emptyErr):
		return http.StatusBadRequest, emptyErr.Error()
	case errors.As(err, &extractErr):
		return http.StatusInternalServerError, "Failed to extract content from file"
	case errors.As(err, &apiErr):
		return http.StatusInternalServerError, "Failed to get AI response"
	default:
		return http.StatusInternalServerError, "An unexpected error occurred"
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status, message := statusFor(err)

	fields := []zap.Field{
		zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Warn("request rejected", fields...)
	}

	writeJSON(w, status, errorResp(message))
}
