package alert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"rightguard/internal/contact"
	"rightguard/internal/content"
	"rightguard/internal/jobs"
	"rightguard/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidInput = errors.New("invalid alert input")
var ErrNotFound = errors.New("alert not found")
var ErrForbidden = errors.New("alert belongs to another user")

const defaultLocation = "Location unavailable"

type Service struct {
	DB       *gorm.DB
	Channels map[contact.Kind]Channel
	// Jobs receives ALERT_RECEIPT jobs for "sent" messages; nil disables tracking.
	Jobs         *jobs.Repo
	ReceiptDelay time.Duration
	Log          *zap.Logger
	Metrics      *metrics.Metrics
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

type Options struct {
	IncidentRecordID string
	AlertType        content.AlertType
	Language         content.Language
	Location         string
	CustomMessage    string
}

type SendResult struct {
	Alerts  []Log   `json:"alerts"`
	Summary Summary `json:"summary"`
}

func (r SendResult) Message() string {
	return fmt.Sprintf("Alerts sent: %d successful, %d failed", r.Summary.Successful, r.Summary.Failed)
}

type receiptPayload struct {
	AlertID string       `json:"alertId"`
	Channel contact.Kind `json:"channel"`
	Ref     string       `json:"ref"`
}

// Send delivers the rendered message to each recipient in order and stores
// one log row per recipient whatever the outcome.
func (s *Service) Send(ctx context.Context, ownerID string, recipients []string, opts Options) (SendResult, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" || len(recipients) == 0 {
		return SendResult{}, fmt.Errorf("%w: userId and recipients are required", ErrInvalidInput)
	}

	now := s.now()
	message, err := s.render(opts, now)
	if err != nil {
		return SendResult{}, err
	}

	res := SendResult{Alerts: make([]Log, 0, len(recipients))}
	for _, recipient := range recipients {
		kind := contact.Classify(recipient)
		receipt := s.deliver(ctx, kind, recipient, message)

		entry := Log{
			ID:               uuid.NewString(),
			UserID:           ownerID,
			IncidentRecordID: opts.IncidentRecordID,
			Recipient:        recipient,
			Timestamp:        s.now(),
			Status:           receipt.Status,
			CreatedAt:        s.now(),
		}
		if err := s.DB.WithContext(ctx).Create(&entry).Error; err != nil {
			return SendResult{}, fmt.Errorf("save alert log: %w", err)
		}
		s.Metrics.AlertSent(string(kind), string(entry.Status))

		if entry.Status == StatusSent {
			s.trackLater(ctx, ownerID, kind, entry.ID, receipt.Ref)
		}

		res.Alerts = append(res.Alerts, entry)
		switch entry.Status {
		case StatusDelivered:
			res.Summary.Successful++
		case StatusFailed:
			res.Summary.Failed++
		}
	}
	res.Summary.Total = len(recipients)
	return res, nil
}

func (s *Service) render(opts Options, now time.Time) (string, error) {
	base := opts.CustomMessage
	if base == "" {
		alertType := opts.AlertType
		if alertType == "" {
			alertType = content.AlertEmergency
		}
		lang := opts.Language
		if lang == "" {
			lang = content.English
		}
		tpl, ok := content.AlertTemplate(lang, alertType)
		if !ok {
			return "", fmt.Errorf("%w: unknown alert type %q", ErrInvalidInput, alertType)
		}
		base = tpl
	}

	location := opts.Location
	if location == "" {
		location = defaultLocation
	}
	msg := strings.Replace(base, "{location}", location, 1)
	msg = strings.Replace(msg, "{time}", now.Format("1/2/2006, 3:04:05 PM MST"), 1)
	return msg, nil
}

func (s *Service) deliver(ctx context.Context, kind contact.Kind, recipient, message string) Receipt {
	ch, ok := s.Channels[kind]
	if !ok {
		s.Log.Warn("no channel for recipient", zap.String("channel", string(kind)))
		return Receipt{Status: StatusFailed}
	}
	receipt, err := ch.Send(ctx, recipient, message)
	if err != nil {
		s.Log.Warn("alert delivery failed", zap.String("channel", string(kind)), zap.Error(err))
		return Receipt{Status: StatusFailed}
	}
	if _, ok := ParseStatus(string(receipt.Status)); !ok {
		return Receipt{Status: StatusFailed}
	}
	return receipt
}

func (s *Service) trackLater(ctx context.Context, ownerID string, kind contact.Kind, alertID, ref string) {
	if s.Jobs == nil {
		return
	}
	if _, ok := s.Channels[kind].(Tracker); !ok {
		return
	}
	p := receiptPayload{AlertID: alertID, Channel: kind, Ref: ref}
	if err := s.Jobs.Enqueue(ctx, ownerID, jobs.TypeAlertReceipt, p, s.now().Add(s.ReceiptDelay)); err != nil {
		s.Log.Error("enqueue alert receipt", zap.String("alert_id", alertID), zap.Error(err))
	}
}

// List returns the owner's alerts newest first, optionally for one incident.
func (s *Service) List(ctx context.Context, ownerID, incidentID string, limit, offset int) ([]Log, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := s.DB.WithContext(ctx).Where("user_id = ?", ownerID)
	if incidentID != "" {
		q = q.Where("incident_record_id = ?", incidentID)
	}

	var out []Log
	if err := q.Order("created_at desc").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return out, nil
}

// UpdateStatus sets an alert's delivery status. A non-empty ownerID limits
// the update to that user's alerts.
func (s *Service) UpdateStatus(ctx context.Context, alertID, ownerID, status string) (Log, error) {
	st, ok := ParseStatus(status)
	if alertID == "" || !ok {
		return Log{}, fmt.Errorf("%w: alertId and a valid status are required", ErrInvalidInput)
	}

	var current Log
	err := s.DB.WithContext(ctx).Where("id = ?", alertID).First(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Log{}, ErrNotFound
	}
	if err != nil {
		return Log{}, fmt.Errorf("load alert: %w", err)
	}
	if ownerID != "" && current.UserID != ownerID {
		return Log{}, ErrForbidden
	}

	q := s.DB.WithContext(ctx).Model(&Log{}).Where("id = ?", alertID)
	if ownerID != "" {
		q = q.Where("user_id = ?", ownerID)
	}
	res := q.Update("status", st)
	if res.Error != nil {
		return Log{}, fmt.Errorf("update alert: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return Log{}, ErrNotFound
	}

	current.Status = st
	return current, nil
}

// ReceiptHandler settles ALERT_RECEIPT jobs through the channel's Tracker.
func (s *Service) ReceiptHandler() jobs.HandlerFunc {
	return func(ctx context.Context, job *jobs.Job) error {
		var p receiptPayload
		if err := json.Unmarshal([]byte(job.Payload), &p); err != nil {
			return fmt.Errorf("bad payload: %w", err)
		}

		tr, ok := s.Channels[p.Channel].(Tracker)
		if !ok {
			return fmt.Errorf("channel %q cannot track receipts", p.Channel)
		}
		st, err := tr.Track(ctx, p.Ref)
		if err != nil {
			return fmt.Errorf("track receipt: %w", err)
		}
		if st == StatusSent {
			return nil
		}

		if _, err := s.UpdateStatus(ctx, p.AlertID, "", string(st)); err != nil {
			return err
		}
		s.Metrics.AlertSent(string(p.Channel), string(st))
		s.Log.Info("alert receipt settled", zap.String("alert_id", p.AlertID), zap.String("status", string(st)))
		return nil
	}
}
