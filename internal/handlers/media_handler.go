package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/services"
)

type MediaHandler struct {
	media     *services.MediaService
	maxSizeMB int64
}

func NewMediaHandler(media *services.MediaService, maxSizeMB int64) *MediaHandler {
	return &MediaHandler{media: media, maxSizeMB: maxSizeMB}
}

func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	maxBytes := h.maxSizeMB * 1024 * 1024
	// Leave room for the multipart envelope around the file.
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1024*1024)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("File too large or invalid form data"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("No file provided"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Failed to read file"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	ctx, cancel := contextWithTimeout(r.Context(), 2*requestTimeout)
	defer cancel()

	m, err := h.media.Upload(ctx, userID, &services.Upload{
		FileName:    header.Filename,
		ContentType: contentType,
		Data:        data,
		Purpose:     models.ParseUploadPurpose(r.FormValue("purpose")),
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrImageRejected):
			writeJSON(w, http.StatusUnprocessableEntity, models.NewErrorResponse("Image rejected: violates community guidelines"))
		case errors.Is(err, services.ErrFileTooLarge):
			writeJSON(w, http.StatusRequestEntityTooLarge, models.NewErrorResponse("File too large"))
		case errors.Is(err, services.ErrUnsupportedMedia):
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Please upload an image file"))
		default:
			writeServiceError(w, r, err, "Failed to upload file")
		}
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(m))
}

func (h *MediaHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	media, err := h.media.ListMine(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load media")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(media))
}

func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.media.Delete(r.Context(), userID, chi.URLParam(r, "mediaId")); err != nil {
		writeServiceError(w, r, err, "Failed to delete media")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.MessageResponse{Message: "Media deleted"}))
}
