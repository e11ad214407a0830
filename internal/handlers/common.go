package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/RehanEggSupplierdev/batchboard/internal/middleware"
	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/observability"
	"github.com/RehanEggSupplierdev/batchboard/internal/services"
)

const requestTimeout = 10 * time.Second

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func contextWithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d)
}

// decodeJSON writes the 400 itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return false
	}
	return true
}

// requireUser returns the authenticated user id, or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return "", false
	}
	return userID, true
}

// writeServiceError maps service sentinels to responses. Unknown errors are
// logged and reported as a 500 with fallback as the message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrForbidden):
		writeJSON(w, http.StatusForbidden, models.NewErrorResponse("You do not have permission to do that"))
	case errors.Is(err, services.ErrProfileNotFound):
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Profile not found"))
	case errors.Is(err, services.ErrPageNotFound):
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Page not found"))
	case errors.Is(err, services.ErrCommentNotFound):
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Comment not found"))
	case errors.Is(err, services.ErrMediaNotFound):
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Media not found"))
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Not found"))
	default:
		observability.GetLogger(r.Context()).Error(fallback,
			zap.String("user_id", middleware.GetUserID(r.Context())),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse(fallback))
	}
}
