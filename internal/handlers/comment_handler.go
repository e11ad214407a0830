package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RehanEggSupplierdev/batchboard/internal/middleware"
	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/realtime"
	"github.com/RehanEggSupplierdev/batchboard/internal/services"
)

type CommentHandler struct {
	comments *services.CommentService
	stream   *realtime.Server
}

func NewCommentHandler(comments *services.CommentService, stream *realtime.Server) *CommentHandler {
	return &CommentHandler{comments: comments, stream: stream}
}

func targetFromRequest(r *http.Request) (models.TargetType, string, bool) {
	tt := models.TargetType(chi.URLParam(r, "targetType"))
	id := chi.URLParam(r, "targetId")
	return tt, id, tt.Valid() && id != ""
}

func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	tt, id, ok := targetFromRequest(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Target type must be profile or page"))
		return
	}

	comments, err := h.comments.List(r.Context(), tt, id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load comments")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(comments))
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.CreateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	c, err := h.comments.Create(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrTargetNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Comment target not found"))
			return
		}
		writeServiceError(w, r, err, "Failed to post comment")
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(c))
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	c, err := h.comments.Update(r.Context(), userID, chi.URLParam(r, "commentId"), &req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update comment")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(c))
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.comments.Delete(r.Context(), userID, chi.URLParam(r, "commentId")); err != nil {
		writeServiceError(w, r, err, "Failed to delete comment")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.MessageResponse{Message: "Comment deleted"}))
}

// Subscribe upgrades to a WebSocket that streams comment changes for one target.
func (h *CommentHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	tt, id, ok := targetFromRequest(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Target type must be profile or page"))
		return
	}

	exists, err := h.comments.TargetExists(r.Context(), tt, id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to subscribe")
		return
	}
	if !exists {
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Comment target not found"))
		return
	}

	h.stream.Serve(w, r, middleware.GetUserID(r.Context()), realtime.CommentTopic(tt, id))
}
