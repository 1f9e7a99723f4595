package guide

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rightguard/internal/content"
	"rightguard/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidInput = errors.New("invalid guide input")
var ErrGeneration = errors.New("guide generation failed")

// Generator produces guide content for a cache miss.
type Generator interface {
	Generate(ctx context.Context, state string, lang content.Language) (Draft, error)
}

type Service struct {
	DB        *gorm.DB
	Generator Generator
	Log       *zap.Logger
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

// Lookup is the result of Get. Generated is set on a cache miss; Cached
// tells whether the guide is persisted.
type Lookup struct {
	Guide     Guide
	Generated bool
	Cached    bool
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Get returns the canonical guide for (state, lang), generating and storing
// one on a miss. Failing to store a generated guide does not fail the read.
func (s *Service) Get(ctx context.Context, state string, lang content.Language) (Lookup, error) {
	state = strings.TrimSpace(state)
	if state == "" || lang == "" {
		return Lookup{}, fmt.Errorf("%w: state and language are required", ErrInvalidInput)
	}

	var existing Guide
	err := s.DB.WithContext(ctx).
		Where("state = ? AND language = ?", state, lang).
		Order("created_at asc").
		First(&existing).Error
	if err == nil {
		return Lookup{Guide: existing, Cached: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.Log.Warn("guide lookup failed, generating", zap.String("state", state), zap.Error(err))
	}

	draft, err := s.Generator.Generate(ctx, state, lang)
	if err != nil {
		return Lookup{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	g := s.newGuide(state, lang, draft)
	if err := s.DB.WithContext(ctx).Create(&g).Error; err != nil {
		s.Log.Error("failed to save generated guide",
			zap.String("state", state),
			zap.String("language", string(lang)),
			zap.Error(err),
		)
		s.Metrics.GuideGenerated(false)
		return Lookup{Guide: g, Generated: true, Cached: false}, nil
	}

	s.Metrics.GuideGenerated(true)
	return Lookup{Guide: g, Generated: true, Cached: true}, nil
}

type CreateInput struct {
	State    string
	Language content.Language
	Title    string
	Content  string
	Script   string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Guide, error) {
	if strings.TrimSpace(in.State) == "" || in.Language == "" ||
		in.Title == "" || in.Content == "" || in.Script == "" {
		return Guide{}, fmt.Errorf("%w: all fields are required", ErrInvalidInput)
	}

	g := s.newGuide(strings.TrimSpace(in.State), in.Language, Draft{
		Title:   in.Title,
		Content: in.Content,
		Script:  in.Script,
	})
	if err := s.DB.WithContext(ctx).Create(&g).Error; err != nil {
		return Guide{}, fmt.Errorf("create guide: %w", err)
	}
	return g, nil
}

func (s *Service) newGuide(state string, lang content.Language, d Draft) Guide {
	now := s.now()
	return Guide{
		ID:        uuid.NewString(),
		State:     state,
		Language:  lang,
		Title:     d.Title,
		Content:   d.Content,
		Script:    d.Script,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
