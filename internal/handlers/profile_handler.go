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

type ProfileHandler struct {
	profiles *services.ProfileService
	stream   *realtime.Server
}

func NewProfileHandler(profiles *services.ProfileService, stream *realtime.Server) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, stream: stream}
}

func (h *ProfileHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	p, err := h.profiles.GetMine(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(p))
}

func (h *ProfileHandler) UpdateMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Normalize()
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, err := h.profiles.UpdateMine(ctx, userID, &req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(p))
}

func (h *ProfileHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	q := models.StudentsQuery{
		Search: r.URL.Query().Get("search"),
		Skill:  r.URL.Query().Get("skill"),
	}

	resp, err := h.profiles.ListStudents(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load students")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(resp))
}

func (h *ProfileHandler) Featured(w http.ResponseWriter, r *http.Request) {
	resp, err := h.profiles.Featured(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to load featured students")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(resp))
}

func (h *ProfileHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentId")
	visitorID := middleware.GetUserID(r.Context())

	resp, err := h.profiles.GetStudent(r.Context(), studentID, visitorID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Student profile not found"))
			return
		}
		writeServiceError(w, r, err, "Failed to load student")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(resp))
}

// Subscribe streams edits to one public student profile.
func (h *ProfileHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.PublicProfile(r.Context(), chi.URLParam(r, "studentId"))
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Student profile not found"))
			return
		}
		writeServiceError(w, r, err, "Failed to subscribe")
		return
	}

	h.stream.Serve(w, r, middleware.GetUserID(r.Context()), realtime.ProfileTopic(p.ID))
}
