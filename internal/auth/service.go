package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rightguard/internal/geo"
	"rightguard/internal/metrics"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("user not found")
var ErrInvalidHandle = errors.New("farcaster profile is required")

type Service struct {
	DB      *gorm.DB
	Metrics *metrics.Metrics
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// CreateOrUpdate upserts the identity keyed by handle. A new identity gets
// state (or the default jurisdiction); an existing one only has its
// jurisdiction refreshed when state is non-empty.
func (s *Service) CreateOrUpdate(ctx context.Context, handle, state string) (User, bool, error) {
	handle = strings.TrimSpace(handle)
	state = strings.TrimSpace(state)
	if handle == "" {
		return User{}, false, ErrInvalidHandle
	}

	existing, err := s.GetByHandle(ctx, handle)
	switch {
	case err == nil:
		if state != "" {
			existing.SelectedState = state
		}
		existing.UpdatedAt = s.now()
		if err := s.DB.WithContext(ctx).Model(&User{}).
			Where("id = ?", existing.ID).
			Updates(map[string]any{
				"selected_state": existing.SelectedState,
				"updated_at":     existing.UpdatedAt,
			}).Error; err != nil {
			return User{}, false, fmt.Errorf("update user: %w", err)
		}
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return User{}, false, err
	}

	if state == "" {
		state = geo.DefaultJurisdiction
	}
	now := s.now()
	u := User{
		ID:               uuid.NewString(),
		FarcasterProfile: handle,
		SelectedState:    state,
		PremiumFeatures:  pq.StringArray{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.DB.WithContext(ctx).Create(&u).Error; err != nil {
		return User{}, false, fmt.Errorf("create user: %w", err)
	}
	s.Metrics.UserCreated()
	return u, true, nil
}

func (s *Service) GetByHandle(ctx context.Context, handle string) (User, error) {
	var u User
	if err := s.DB.WithContext(ctx).Where("farcaster_profile = ?", handle).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	var u User
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}
