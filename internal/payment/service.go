package payment

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"rightguard/internal/auth"
	"rightguard/internal/metrics"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidInput       = errors.New("missing required fields")
	ErrInvalidFeature     = errors.New("invalid feature")
	ErrAmountMismatch     = errors.New("amount does not match feature price")
	ErrVerificationFailed = errors.New("transaction verification failed")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyUnlocked    = errors.New("feature already unlocked")
)

type Service struct {
	DB       *gorm.DB
	Users    *auth.Service
	Verifier Verifier
	Log      *zap.Logger
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

type PurchaseResult struct {
	User            auth.User `json:"user"`
	UnlockedFeature Feature   `json:"unlockedFeature"`
}

// Purchase grants featureKey to the owner once the payment proof checks out.
// The held-check and the append are not atomic; entitlements are read as a
// set so a duplicate key is harmless.
func (s *Service) Purchase(ctx context.Context, ownerID, featureKey, txHash string, amount float64) (PurchaseResult, error) {
	if ownerID == "" || featureKey == "" || strings.TrimSpace(txHash) == "" || amount == 0 {
		return PurchaseResult{}, ErrInvalidInput
	}

	feature, ok := Lookup(featureKey)
	if !ok {
		return PurchaseResult{}, ErrInvalidFeature
	}
	if amount != feature.Price {
		return PurchaseResult{}, ErrAmountMismatch
	}

	verified, err := s.Verifier.Verify(ctx, txHash, amount)
	if err != nil {
		s.Log.Warn("transaction verification failed", zap.String("tx_hash", txHash), zap.Error(err))
	}
	if err != nil || !verified {
		return PurchaseResult{}, ErrVerificationFailed
	}

	u, err := s.owner(ctx, ownerID)
	if err != nil {
		return PurchaseResult{}, err
	}
	if u.HasFeature(featureKey) {
		return PurchaseResult{}, ErrAlreadyUnlocked
	}

	features := append(pq.StringArray{}, u.PremiumFeatures...)
	features = append(features, featureKey)
	now := s.now()
	if err := s.DB.WithContext(ctx).Model(&auth.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"premium_features": features,
			"updated_at":       now,
		}).Error; err != nil {
		return PurchaseResult{}, fmt.Errorf("grant entitlement: %w", err)
	}
	u.PremiumFeatures = features
	u.UpdatedAt = now
	s.Metrics.EntitlementGranted(featureKey)

	entry := PurchaseLog{UserID: u.ID, FeatureKey: featureKey, Amount: amount, TxHash: txHash, CreatedAt: now}
	if err := s.DB.WithContext(ctx).Create(&entry).Error; err != nil {
		s.Log.Error("failed to log purchase",
			zap.String("user_id", u.ID),
			zap.String("feature", featureKey),
			zap.String("tx_hash", txHash),
			zap.Error(err),
		)
	}

	return PurchaseResult{User: u, UnlockedFeature: feature}, nil
}

type Entitlements struct {
	Unlocked  []Feature `json:"unlocked"`
	Available []Feature `json:"available"`
}

func (s *Service) Entitlements(ctx context.Context, ownerID string) (Entitlements, error) {
	if ownerID == "" {
		return Entitlements{}, ErrInvalidInput
	}
	u, err := s.owner(ctx, ownerID)
	if err != nil {
		return Entitlements{}, err
	}

	out := Entitlements{Unlocked: []Feature{}, Available: []Feature{}}
	for _, f := range Catalog {
		if slices.Contains(u.PremiumFeatures, f.Key) {
			out.Unlocked = append(out.Unlocked, f)
		} else {
			out.Available = append(out.Available, f)
		}
	}
	return out, nil
}

// Access answers ValidateAccess. Feature is nil for keys outside the catalog.
type Access struct {
	HasAccess bool     `json:"hasAccess"`
	Feature   *Feature `json:"feature"`
}

func (s *Service) ValidateAccess(ctx context.Context, ownerID, featureKey string) (Access, error) {
	if ownerID == "" || featureKey == "" {
		return Access{}, ErrInvalidInput
	}
	u, err := s.owner(ctx, ownerID)
	if err != nil {
		return Access{}, err
	}

	a := Access{HasAccess: u.HasFeature(featureKey)}
	if f, ok := Lookup(featureKey); ok {
		a.Feature = &f
	}
	return a, nil
}

func (s *Service) owner(ctx context.Context, id string) (auth.User, error) {
	u, err := s.Users.GetByID(ctx, id)
	if errors.Is(err, auth.ErrNotFound) {
		return auth.User{}, ErrUserNotFound
	}
	return u, err
}
