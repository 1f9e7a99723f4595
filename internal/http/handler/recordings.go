package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"rightguard/internal/incident"

	"go.uber.org/zap"
)

const maxUploadBytes = 200 << 20

type RecordingHandler struct {
	Svc *incident.Service
	Log *zap.Logger
}

// saveRecordingResp adds the upload outcome to the stored record.
type saveRecordingResp struct {
	incident.Record
	UploadFailed bool `json:"uploadFailed,omitempty"`
}

func (h *RecordingHandler) Save(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		fail(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		fail(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	defer file.Close()

	userID := r.FormValue("userId")
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(r.FormValue("latitude")), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(r.FormValue("longitude")), 64)
	if userID == "" || latErr != nil || lonErr != nil {
		fail(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if !ownerOK(w, r, userID) {
		return
	}

	res, err := h.Svc.Save(r.Context(), incident.SaveInput{
		UserID:    userID,
		Latitude:  lat,
		Longitude: lon,
		Address:   r.FormValue("address"),
		Notes:     r.FormValue("notes"),
		FileName:  hdr.Filename,
		File:      file,
	})
	if err != nil {
		if errors.Is(err, incident.ErrInvalidInput) {
			fail(w, http.StatusBadRequest, "Missing required fields")
			return
		}
		h.Log.Error("recording save error", zap.Error(err))
		fail(w, http.StatusInternalServerError, "Failed to save recording")
		return
	}

	msg := "Recording saved successfully"
	if res.UploadFailed {
		msg = "Recording saved without media (upload failed)"
	}
	ok(w, saveRecordingResp{Record: res.Record, UploadFailed: res.UploadFailed}, msg)
}

func (h *RecordingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		fail(w, http.StatusBadRequest, "User ID is required")
		return
	}
	if !ownerOK(w, r, userID) {
		return
	}

	records, err := h.Svc.List(r.Context(), userID, queryInt(r, "limit", 10), queryInt(r, "offset", 0))
	if err != nil {
		h.Log.Error("get recordings error", zap.Error(err))
		fail(w, http.StatusInternalServerError, "Failed to fetch recordings")
		return
	}
	ok(w, records, "")
}

func (h *RecordingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	recordID, userID := q.Get("recordId"), q.Get("userId")
	if recordID == "" || userID == "" {
		fail(w, http.StatusBadRequest, "Record ID and User ID are required")
		return
	}
	if !ownerOK(w, r, userID) {
		return
	}

	err := h.Svc.Delete(r.Context(), recordID, userID)
	switch {
	case errors.Is(err, incident.ErrNotFoundOrDenied):
		fail(w, http.StatusNotFound, "Record not found or access denied")
		return
	case err != nil:
		h.Log.Error("delete recording error", zap.Error(err))
		fail(w, http.StatusInternalServerError, "Failed to delete recording")
		return
	}
	ok(w, nil, "Recording deleted successfully")
}
