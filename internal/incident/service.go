package incident

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"rightguard/internal/geo"
	"rightguard/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidInput = errors.New("invalid recording input")
var ErrNotFoundOrDenied = errors.New("record not found or not owned by user")
var ErrUploaderDisabled = errors.New("media uploader not configured")

// Uploader stores media in a content-addressed store and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
}

type Service struct {
	DB       *gorm.DB
	Uploader Uploader
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

type SaveInput struct {
	UserID    string
	Latitude  float64
	Longitude float64
	Address   string
	Notes     string
	FileName  string
	File      io.Reader
}

// SaveResult carries the stored record. UploadFailed is set when the record
// was stored without media.
type SaveResult struct {
	Record       Record
	UploadFailed bool
}

// Save uploads the media first, then persists the record with or without it.
func (s *Service) Save(ctx context.Context, in SaveInput) (SaveResult, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	if in.UserID == "" || in.File == nil {
		return SaveResult{}, fmt.Errorf("%w: file and userId are required", ErrInvalidInput)
	}
	if !finite(in.Latitude) || !finite(in.Longitude) {
		return SaveResult{}, fmt.Errorf("%w: latitude and longitude must be numeric", ErrInvalidInput)
	}

	now := s.now()
	rec := Record{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Timestamp: now,
		Location: geo.Location{
			Latitude:  in.Latitude,
			Longitude: in.Longitude,
			Address:   strings.TrimSpace(in.Address),
		},
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
	}

	url, err := s.upload(ctx, in)
	if err != nil {
		s.Log.Warn("media upload failed, saving record without media",
			zap.String("user_id", in.UserID),
			zap.String("record_id", rec.ID),
			zap.Error(err),
		)
		s.Metrics.UploadFailed()
	}
	rec.MediaURL = url

	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return SaveResult{}, fmt.Errorf("create incident record: %w", err)
	}
	return SaveResult{Record: rec, UploadFailed: err != nil}, nil
}

func (s *Service) upload(ctx context.Context, in SaveInput) (string, error) {
	if s.Uploader == nil {
		return "", ErrUploaderDisabled
	}
	name := in.FileName
	if name == "" {
		name = fmt.Sprintf("right-guard-recording-%d", s.now().UnixMilli())
	}
	return s.Uploader.Upload(ctx, name, in.File)
}

// List returns the owner's records, newest first.
func (s *Service) List(ctx context.Context, ownerID string, limit, offset int) ([]Record, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	var out []Record
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list incident records: %w", err)
	}
	return out, nil
}

// Delete removes a record after checking it belongs to ownerID. The check
// and the delete are separate statements.
func (s *Service) Delete(ctx context.Context, recordID, ownerID string) error {
	if recordID == "" || ownerID == "" {
		return fmt.Errorf("%w: recordId and userId are required", ErrInvalidInput)
	}

	var rec Record
	if err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", recordID, ownerID).
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFoundOrDenied
		}
		return err
	}

	if err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", recordID, ownerID).
		Delete(&Record{}).Error; err != nil {
		return fmt.Errorf("delete incident record: %w", err)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
