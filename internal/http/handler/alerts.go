package handler

import (
	"errors"
	"net/http"

	"rightguard/internal/alert"
	"rightguard/internal/auth"
	"rightguard/internal/content"

	"go.uber.org/zap"
)

type AlertHandler struct {
	Svc *alert.Service
	Log *zap.Logger
}

type sendAlertReq struct {
	UserID           string   `json:"userId"`
	IncidentRecordID string   `json:"incidentRecordId"`
	Recipients       []string `json:"recipients"`
	AlertType        string   `json:"alertType"`
	Language         string   `json:"language"`
	Location         string   `json:"location"`
	CustomMessage    string   `json:"customMessage"`
}

func (h *AlertHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendAlertReq
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.UserID == "" || len(req.Recipients) == 0 {
		fail(w, http.StatusBadRequest, "User ID and recipients are required")
		return
	}
	if !ownerOK(w, r, req.UserID) {
		return
	}

	opts := alert.Options{
		IncidentRecordID: req.IncidentRecordID,
		Location:         req.Location,
		CustomMessage:    req.CustomMessage,
	}
	if req.AlertType != "" {
		t, valid := content.ParseAlertType(req.AlertType)
		if !valid {
			fail(w, http.StatusBadRequest, "Unknown alert type")
			return
		}
		opts.AlertType = t
	}
	if req.Language != "" {
		l, valid := content.ParseLanguage(req.Language)
		if !valid {
			fail(w, http.StatusBadRequest, "Unsupported language")
			return
		}
		opts.Language = l
	}

	res, err := h.Svc.Send(r.Context(), req.UserID, req.Recipients, opts)
	if err != nil {
		if errors.Is(err, alert.ErrInvalidInput) {
			fail(w, http.StatusBadRequest, "User ID and recipients are required")
			return
		}
		h.Log.Error("alert sending error", zap.Error(err))
		fail(w, http.StatusInternalServerError, "Failed to send alerts")
		return
	}
	ok(w, res, res.Message())
}

func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("userId")
	if userID == "" {
		fail(w, http.StatusBadRequest, "User ID is required")
		return
	}
	if !ownerOK(w, r, userID) {
		return
	}

	alerts, err := h.Svc.List(r.Context(), userID, q.Get("incidentRecordId"), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		h.Log.Error("get alerts error", zap.Error(err))
		fail(w, http.StatusInternalServerError, "Failed to fetch alerts")
		return
	}
	ok(w, alerts, "")
}

type updateAlertReq struct {
	AlertID string `json:"alertId"`
	Status  string `json:"status"`
}

func (h *AlertHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateAlertReq
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.AlertID == "" || req.Status == "" {
		fail(w, http.StatusBadRequest, "Alert ID and status are required")
		return
	}

	owner, _ := auth.UserIDFromContext(r.Context())
	updated, err := h.Svc.UpdateStatus(r.Context(), req.AlertID, owner, req.Status)
	switch {
	case errors.Is(err, alert.ErrForbidden):
		fail(w, http.StatusForbidden, "Forbidden")
		return
	case errors.Is(err, alert.ErrInvalidInput):
		fail(w, http.StatusBadRequest, "Invalid alert status")
		return
	case errors.Is(err, alert.ErrNotFound):
		fail(w, http.StatusNotFound, "Alert not found")
		return
	case err != nil:
		h.Log.Error("update alert error", zap.Error(err))
		fail(w, http.StatusInternalServerError, "Failed to update alert status")
		return
	}
	ok(w, updated, "Alert status updated successfully")
}
