package handler

import (
	"errors"
	"net/http"

	"rightguard/internal/payment"

	"go.uber.org/zap"
)

type PaymentHandler struct {
	Svc *payment.Service
	Log *zap.Logger
}

type purchaseReq struct {
	UserID     string  `json:"userId"`
	FeatureKey string  `json:"featureKey"`
	TxHash     string  `json:"txHash"`
	Amount     float64 `json:"amount"`
}

// paymentError maps the payment sentinels to an HTTP status and the
// client-facing message; known is false for unexpected errors.
func paymentError(err error) (status int, msg string, known bool) {
	switch {
	case errors.Is(err, payment.ErrUserNotFound):
		return http.StatusNotFound, "User not found", true
	case errors.Is(err, payment.ErrInvalidInput):
		return http.StatusBadRequest, "Missing required fields", true
	case errors.Is(err, payment.ErrInvalidFeature):
		return http.StatusBadRequest, "Invalid feature", true
	case errors.Is(err, payment.ErrAmountMismatch):
		return http.StatusBadRequest, "Amount mismatch", true
	case errors.Is(err, payment.ErrVerificationFailed):
		return http.StatusBadRequest, "Transaction verification failed", true
	case errors.Is(err, payment.ErrAlreadyUnlocked):
		return http.StatusBadRequest, "Feature already unlocked", true
	}
	return http.StatusInternalServerError, "", false
}

func (h *PaymentHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseReq
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if !ownerOK(w, r, req.UserID) {
		return
	}

	res, err := h.Svc.Purchase(r.Context(), req.UserID, req.FeatureKey, req.TxHash, req.Amount)
	if err != nil {
		if status, msg, known := paymentError(err); known {
			fail(w, status, msg)
			return
		}
		h.Log.Error("payment processing error", zap.Error(err))
		fail(w, http.StatusInternalServerError, "Payment processing failed")
		return
	}
	ok(w, res, res.UnlockedFeature.Name+" unlocked successfully!")
}

func (h *PaymentHandler) Entitlements(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		fail(w, http.StatusBadRequest, "User ID is required")
		return
	}
	if !ownerOK(w, r, userID) {
		return
	}

	ents, err := h.Svc.Entitlements(r.Context(), userID)
	if err != nil {
		if status, msg, known := paymentError(err); known {
			fail(w, status, msg)
			return
		}
		h.Log.Error("get premium features error", zap.Error(err))
		fail(w, http.StatusInternalServerError, "Failed to fetch premium features")
		return
	}
	ok(w, ents, "")
}

type validateAccessReq struct {
	UserID     string `json:"userId"`
	FeatureKey string `json:"featureKey"`
}

func (h *PaymentHandler) ValidateAccess(w http.ResponseWriter, r *http.Request) {
	var req validateAccessReq
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.UserID == "" || req.FeatureKey == "" {
		fail(w, http.StatusBadRequest, "User ID and feature key are required")
		return
	}
	if !ownerOK(w, r, req.UserID) {
		return
	}

	access, err := h.Svc.ValidateAccess(r.Context(), req.UserID, req.FeatureKey)
	if err != nil {
		if status, msg, known := paymentError(err); known {
			fail(w, status, msg)
			return
		}
		h.Log.Error("feature validation error", zap.Error(err))
		fail(w, http.StatusInternalServerError, "Feature validation failed")
		return
	}
	ok(w, access, "")
}
