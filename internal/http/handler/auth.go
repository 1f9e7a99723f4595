package handler

import (
	"errors"
	"net/http"
	"strings"

	"rightguard/internal/auth"

	"go.uber.org/zap"
)

type AuthHandler struct {
	Users *auth.Service
	// JWT is nil when session tokens are disabled.
	JWT *auth.JWT
	Log *zap.Logger
}

type upsertUserReq struct {
	FarcasterProfile string `json:"farcasterProfile"`
	SelectedState    string `json:"selectedState"`
}

func (h *AuthHandler) CreateOrUpdate(w http.ResponseWriter, r *http.Request) {
	var req upsertUserReq
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.FarcasterProfile) == "" {
		fail(w, http.StatusBadRequest, "Farcaster profile is required")
		return
	}

	u, created, err := h.Users.CreateOrUpdate(r.Context(), req.FarcasterProfile, req.SelectedState)
	if err != nil {
		h.Log.Error("auth error", zap.Error(err))
		fail(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	if h.JWT != nil {
		token, err := h.JWT.Sign(u.ID)
		if err != nil {
			h.Log.Error("sign session token", zap.Error(err))
			fail(w, http.StatusInternalServerError, "Authentication failed")
			return
		}
		w.Header().Set("X-Session-Token", token)
	}

	msg := "User updated successfully"
	if created {
		msg = "User created successfully"
	}
	ok(w, u, msg)
}

func (h *AuthHandler) Get(w http.ResponseWriter, r *http.Request) {
	handle := strings.TrimSpace(r.URL.Query().Get("farcasterProfile"))
	if handle == "" {
		fail(w, http.StatusBadRequest, "Farcaster profile is required")
		return
	}

	u, err := h.Users.GetByHandle(r.Context(), handle)
	switch {
	case errors.Is(err, auth.ErrNotFound):
		fail(w, http.StatusNotFound, "User not found")
		return
	case err != nil:
		h.Log.Error("get user error", zap.Error(err))
		fail(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}
	ok(w, u, "")
}
