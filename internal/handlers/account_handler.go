package handlers

import (
	"net/http"

	"github.com/devconnector/backend/internal/middleware"
	"github.com/devconnector/backend/internal/models"
	"github.com/devconnector/backend/internal/services"
)

type AccountHandler struct {
	accounts services.AccountService
}

func NewAccountHandler(accounts services.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// DeleteAccount removes the caller's posts, profile and user record, in that
// order. A failure part way leaves the earlier deletions in place.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request, caller middleware.Caller) {
	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	if err := h.accounts.DeleteAccount(ctx, caller.ID); err != nil {
		serverError(w, r, "account_delete", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("User deleted"))
}
