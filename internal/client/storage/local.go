package storage

import (
	"encoding/json"

	"rightguard/internal/client/api"
	"rightguard/internal/content"
	"rightguard/internal/geo"
)

// Local reads and writes the typed client values. Each key is independent
// and falls back to its default when absent or unreadable.
type Local struct {
	S Storage
}

func (l Local) User() *api.User {
	v, ok, err := l.S.Get(KeyUser)
	if err != nil || !ok || v == "" {
		return nil
	}
	var u api.User
	if err := json.Unmarshal([]byte(v), &u); err != nil {
		return nil
	}
	return &u
}

// SetUser stores u, or removes the key for nil.
func (l Local) SetUser(u *api.User) error {
	if u == nil {
		return l.S.Delete(KeyUser)
	}
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return l.S.Set(KeyUser, string(b))
}

func (l Local) SelectedState() string {
	v, ok, err := l.S.Get(KeySelectedState)
	if err != nil || !ok || v == "" {
		return geo.DefaultJurisdiction
	}
	return v
}

func (l Local) SetSelectedState(state string) error {
	return l.S.Set(KeySelectedState, state)
}

func (l Local) Language() content.Language {
	v, ok, err := l.S.Get(KeyLanguage)
	if err != nil || !ok {
		return content.Languages[0]
	}
	lang, valid := content.ParseLanguage(v)
	if !valid {
		return content.Languages[0]
	}
	return lang
}

func (l Local) SetLanguage(lang content.Language) error {
	return l.S.Set(KeyLanguage, string(lang))
}

func (l Local) EmergencyContacts() []string {
	v, ok, err := l.S.Get(KeyEmergencyContacts)
	if err != nil || !ok {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(v), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

func (l Local) SetEmergencyContacts(contacts []string) error {
	if contacts == nil {
		contacts = []string{}
	}
	b, err := json.Marshal(contacts)
	if err != nil {
		return err
	}
	return l.S.Set(KeyEmergencyContacts, string(b))
}

// Session is the last session token handed out by the server, if any.
func (l Local) Session() string {
	v, ok, err := l.S.Get(KeySession)
	if err != nil || !ok {
		return ""
	}
	return v
}

func (l Local) SetSession(token string) error {
	if token == "" {
		return l.S.Delete(KeySession)
	}
	return l.S.Set(KeySession, token)
}
