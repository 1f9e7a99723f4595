// Package content holds the static, per-language text of the application:
// basic rights, "what to say" scripts and alert templates.
package content

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

type Language string

const (
	English Language = "en"
	Spanish Language = "es"
)

// Languages lists the supported languages; the first one is the default.
var Languages = []Language{English, Spanish}

func ParseLanguage(s string) (Language, bool) {
	for _, l := range Languages {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// Name is the display name of the language, used in generation prompts.
func (l Language) Name() string {
	switch l {
	case Spanish:
		return "Spanish"
	default:
		return "English"
	}
}

type AlertType string

const (
	AlertEmergency AlertType = "emergency"
	AlertRecording AlertType = "recording"
	AlertFollowUp  AlertType = "followUp"
)

func ParseAlertType(s string) (AlertType, bool) {
	switch AlertType(s) {
	case AlertEmergency, AlertRecording, AlertFollowUp:
		return AlertType(s), true
	}
	return "", false
}

// ScriptKeys is the display order of Rights.Scripts.
var ScriptKeys = []string{"silence", "search", "detention", "recording"}

type Rights struct {
	Title   string               `yaml:"title"`
	Rights  []string             `yaml:"rights"`
	Scripts map[string]string    `yaml:"scripts"`
	Alerts  map[AlertType]string `yaml:"alerts"`
}

//go:embed content.yaml
var raw []byte

var catalog map[Language]Rights

func init() {
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		panic(fmt.Sprintf("content: bad embedded catalog: %v", err))
	}
	for _, l := range Languages {
		if _, ok := catalog[l]; !ok {
			panic(fmt.Sprintf("content: missing language %q", l))
		}
	}
}

// For returns the basic rights for a language, falling back to English.
func For(l Language) Rights {
	if r, ok := catalog[l]; ok {
		return r
	}
	return catalog[English]
}

// AlertTemplate returns the raw template with {location} and {time} placeholders.
func AlertTemplate(l Language, t AlertType) (string, bool) {
	tpl, ok := For(l).Alerts[t]
	return tpl, ok
}
