package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"rightguard/internal/client/api"
	"rightguard/internal/client/storage"

	"go.uber.org/zap"
)

var ErrUnauthenticated = errors.New("user not authenticated")

type AuthService interface {
	CreateOrUpdateUser(ctx context.Context, handle, state string) (api.User, error)
}

type PaymentService interface {
	Purchase(ctx context.Context, userID, featureKey, txHash string, amount float64) (api.PurchaseResult, error)
}

// Store holds the session State. Dispatch runs the reducer, then the storage
// effects, then the subscribers.
type Store struct {
	local    storage.Local
	auth     AuthService
	payments PaymentService
	log      *zap.Logger

	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
}

func New(local storage.Local, auth AuthService, payments PaymentService, log *zap.Logger) *Store {
	return &Store{
		local:    local,
		auth:     auth,
		payments: payments,
		log:      log,
		state:    Initial(),
		subs:     map[int]func(State){},
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for every state change and returns its remover.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, a)
	s.state = next
	s.persist(prev, next)
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// persist mirrors changed fields into local storage. Failures are logged
// and dropped.
func (s *Store) persist(prev, next State) {
	if prev.User != next.User {
		if err := s.local.SetUser(next.User); err != nil {
			s.log.Debug("persist user", zap.Error(err))
		}
	}
	if prev.SelectedLanguage != next.SelectedLanguage {
		if err := s.local.SetLanguage(next.SelectedLanguage); err != nil {
			s.log.Debug("persist language", zap.Error(err))
		}
	}
	if prev.CurrentJurisdiction != next.CurrentJurisdiction {
		if err := s.local.SetSelectedState(next.CurrentJurisdiction); err != nil {
			s.log.Debug("persist jurisdiction", zap.Error(err))
		}
	}
}

// Hydrate loads user, language and jurisdiction from local storage; absent
// values fall back to their defaults.
// All three are read before any dispatch, since dispatching a user writes
// its selected state back to storage.
func (s *Store) Hydrate() State {
	u := s.local.User()
	lang := s.local.Language()
	jurisdiction := s.local.SelectedState()

	if u != nil {
		s.Dispatch(SetUser{User: u})
	}
	s.Dispatch(SetLanguage{Language: lang})
	return s.Dispatch(SetCurrentJurisdiction{Jurisdiction: jurisdiction})
}

// HasEntitlement is false when nobody is signed in.
func (s *Store) HasEntitlement(key string) bool {
	st := s.State()
	return st.User != nil && slices.Contains(st.User.PremiumFeatures, key)
}

func (s *Store) Logout() {
	s.Dispatch(Reset{})
}

// InitializeUser signs in with handle using the current jurisdiction.
func (s *Store) InitializeUser(ctx context.Context, handle string) error {
	u, err := s.auth.CreateOrUpdateUser(ctx, handle, s.State().CurrentJurisdiction)
	if err != nil {
		s.log.Error("failed to initialize user", zap.String("handle", handle), zap.Error(err))
		return fmt.Errorf("initialize user: %w", err)
	}
	s.Dispatch(SetUser{User: &u})
	return nil
}

func (s *Store) PurchaseEntitlement(ctx context.Context, featureKey, txHash string, amount float64) error {
	u := s.State().User
	if u == nil {
		return ErrUnauthenticated
	}

	res, err := s.payments.Purchase(ctx, u.UserID, featureKey, txHash, amount)
	if err != nil {
		s.log.Error("failed to purchase feature", zap.String("feature", featureKey), zap.Error(err))
		return fmt.Errorf("purchase %s: %w", featureKey, err)
	}
	s.Dispatch(SetUser{User: &res.User})
	return nil
}
