package handler

import (
	"errors"
	"net/http"

	"rightguard/internal/auth"

	"go.uber.org/zap"
)

type MeHandler struct {
	Users *auth.Service
	Log   *zap.Logger
}

// Me returns the identity named by the session token.
func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, signedIn := auth.UserIDFromContext(r.Context())
	if !signedIn {
		fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	u, err := h.Users.GetByID(r.Context(), uid)
	switch {
	case errors.Is(err, auth.ErrNotFound):
		fail(w, http.StatusNotFound, "User not found")
		return
	case err != nil:
		h.Log.Error("me lookup failed", zap.Error(err))
		fail(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}
	ok(w, u, "")
}
