package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/services"
)

type PageHandler struct {
	pages *services.PageService
}

func NewPageHandler(pages *services.PageService) *PageHandler {
	return &PageHandler{pages: pages}
}

func (h *PageHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := models.PagesQuery{
		Search: r.URL.Query().Get("search"),
		Status: models.ParsePageStatus(r.URL.Query().Get("status")),
	}
	resp, err := h.pages.ListMine(r.Context(), userID, q)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load pages")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(resp))
}

func (h *PageHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.PageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Normalize()
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	page, err := h.pages.Create(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create page")
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(page))
}

func (h *PageHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	page, err := h.pages.GetMine(r.Context(), userID, chi.URLParam(r, "pageId"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to load page")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(page))
}

func (h *PageHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.PageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Normalize()
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	page, err := h.pages.Update(r.Context(), userID, chi.URLParam(r, "pageId"), &req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update page")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(page))
}

func (h *PageHandler) SetPublished(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.SetPublishedRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	page, err := h.pages.SetPublished(r.Context(), userID, chi.URLParam(r, "pageId"), req.Published)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update page")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(page))
}

func (h *PageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.pages.Delete(r.Context(), userID, chi.URLParam(r, "pageId")); err != nil {
		writeServiceError(w, r, err, "Failed to delete page")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.MessageResponse{Message: "Page deleted"}))
}

func (h *PageHandler) ViewPublished(w http.ResponseWriter, r *http.Request) {
	resp, err := h.pages.ViewPublished(r.Context(), chi.URLParam(r, "studentId"), chi.URLParam(r, "pageId"))
	if err != nil {
		if errors.Is(err, services.ErrPageNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Page not found or not published"))
			return
		}
		writeServiceError(w, r, err, "Failed to load page")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(resp))
}

func (h *PageHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req models.PreviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len([]rune(req.Content)) > models.MaxPageContentLength {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{"content": "Content too long"}))
		return
	}

	html, err := h.pages.Preview(req.Content)
	if err != nil {
		writeServiceError(w, r, err, "Failed to render preview")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.PreviewResponse{HTML: html}))
}
