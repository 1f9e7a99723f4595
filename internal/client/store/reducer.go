// Package store is the client-side session state: a pure reducer plus an
// injectable Store that mirrors selected fields into local storage.
package store

import (
	"slices"

	"rightguard/internal/client/api"
	"rightguard/internal/content"
	"rightguard/internal/geo"
)

type State struct {
	User                *api.User
	SelectedLanguage    content.Language
	CurrentJurisdiction string
	IsRecording         bool
	PremiumUnlocked     bool
}

func Initial() State {
	return State{
		SelectedLanguage:    content.Languages[0],
		CurrentJurisdiction: geo.DefaultJurisdiction,
	}
}

// Action is one of the types below.
type Action interface {
	action()
}

// SetUser replaces the user. A nil User keeps the current jurisdiction.
type SetUser struct{ User *api.User }

type SetLanguage struct{ Language content.Language }

type SetCurrentJurisdiction struct{ Jurisdiction string }

type SetRecording struct{ Recording bool }

// UpdateUserEntitlements replaces the current user's entitlement keys.
type UpdateUserEntitlements struct{ Keys []string }

type Reset struct{}

func (SetUser) action() {}
func (SetLanguage) action() {}
func (SetCurrentJurisdiction) action() {}
func (SetRecording) action() {}
func (UpdateUserEntitlements) action() {}
func (Reset) action() {}

// Reduce returns the next state. It never mutates s or the action payload;
// a changed user is always a fresh pointer.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetUser:
		s.User = cloneUser(a.User)
		if s.User != nil && s.User.SelectedState != "" {
			s.CurrentJurisdiction = s.User.SelectedState
		}
		s.PremiumUnlocked = s.User != nil && len(s.User.PremiumFeatures) > 0
	case SetLanguage:
		s.SelectedLanguage = a.Language
	case SetCurrentJurisdiction:
		s.CurrentJurisdiction = a.Jurisdiction
	case SetRecording:
		s.IsRecording = a.Recording
	case UpdateUserEntitlements:
		if s.User == nil {
			return s
		}
		u := cloneUser(s.User)
		u.PremiumFeatures = slices.Clone(a.Keys)
		s.User = u
		s.PremiumUnlocked = len(a.Keys) > 0
	case Reset:
		return Initial()
	}
	return s
}

func cloneUser(u *api.User) *api.User {
	if u == nil {
		return nil
	}
	c := *u
	c.PremiumFeatures = slices.Clone(u.PremiumFeatures)
	return &c
}
