package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/RehanEggSupplierdev/batchboard/internal/middleware"
	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/observability"
	"github.com/RehanEggSupplierdev/batchboard/internal/services"
)

const accountTimeout = 20 * time.Second

type AccountHandler struct {
	accounts *services.AccountService
	auth     *services.AuthService
}

func NewAccountHandler(accounts *services.AccountService, auth *services.AuthService) *AccountHandler {
	return &AccountHandler{accounts: accounts, auth: auth}
}

// DeleteAccount removes the caller's data and revokes the token used for the request.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), accountTimeout)
	defer cancel()

	result, err := h.accounts.DeleteAccount(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to delete account")
		return
	}

	if err := h.auth.SignOut(ctx, middleware.GetClaims(r.Context())); err != nil {
		observability.GetLogger(ctx).Warn("revoke token after account deletion failed", zap.String("user_id", userID), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(result))
}
