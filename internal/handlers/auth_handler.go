package handlers

import (
	"errors"
	"net/http"

	"github.com/RehanEggSupplierdev/batchboard/internal/middleware"
	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/services"
)

type AuthHandler struct {
	auth    *services.AuthService
	captcha services.CaptchaVerifier
}

// NewAuthHandler takes an optional captcha verifier; nil disables the sign-up check.
func NewAuthHandler(auth *services.AuthService, captcha services.CaptchaVerifier) *AuthHandler {
	return &AuthHandler{auth: auth, captcha: captcha}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
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

	if h.captcha != nil {
		if err := h.captcha.Verify(ctx, req.RecaptchaToken, r.RemoteAddr); err != nil {
			if errors.Is(err, services.ErrCaptchaFailed) {
				writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{
					"recaptcha_token": "Please complete the captcha",
				}))
				return
			}
			writeServiceError(w, r, err, "Captcha verification unavailable")
			return
		}
	}

	session, err := h.auth.SignUp(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStudentIDTaken):
			writeJSON(w, http.StatusConflict, models.NewErrorResponse("Student ID already exists. Please choose a different one."))
		case errors.Is(err, services.ErrEmailTaken):
			writeJSON(w, http.StatusConflict, models.NewErrorResponse("An account with this email already exists. Please sign in instead."))
		default:
			writeServiceError(w, r, err, "Failed to create account")
		}
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(session))
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	session, err := h.auth.SignIn(ctx, &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid email or password. Please check your credentials and try again."))
			return
		}
		writeServiceError(w, r, err, "Sign in failed")
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(session))
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context(), middleware.GetClaims(r.Context())); err != nil {
		writeServiceError(w, r, err, "Sign out failed")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.MessageResponse{Message: "Signed out"}))
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	session, err := h.auth.GetSession(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(session))
}

func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.UpdatePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.auth.UpdatePassword(ctx, userID, &req); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{
				"current_password": "Current password is incorrect",
			}))
			return
		}
		writeServiceError(w, r, err, "Failed to update password")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.MessageResponse{Message: "Password updated successfully"}))
}
