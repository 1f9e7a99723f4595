package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// RUNNING jobs locked longer than this are handed out again.
const staleLock = 5 * time.Minute

type Repo struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (r *Repo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

func (r *Repo) Enqueue(ctx context.Context, userID, typ string, payload any, runAt time.Time) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	now := r.now()
	j := Job{
		UserID:    userID,
		Type:      typ,
		Payload:   string(b),
		RunAt:     runAt,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.DB.WithContext(ctx).Create(&j).Error
}

// Claim marks one due job RUNNING for workerID. It returns nil, nil when
// nothing is due.
func (r *Repo) Claim(ctx context.Context, workerID string) (*Job, error) {
	now := r.now()
	var job Job
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Job{}).
			Where("status = ? AND locked_at IS NOT NULL AND locked_at < ?", StatusRunning, now.Add(-staleLock)).
			Updates(map[string]any{
				"status":     StatusPending,
				"locked_by":  nil,
				"locked_at":  nil,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		if tx.Dialector.Name() == "postgres" {
			// FOR UPDATE SKIP LOCKED ensures no double-claim across workers
			return tx.Raw(`
with cte as (
  select id
  from jobs
  where status=? and run_at <= ?
  order by run_at asc
  for update skip locked
  limit 1
)
update jobs
set status=?, locked_by=?, locked_at=?, updated_at=?
where id in (select id from cte)
returning *;
`, StatusPending, now, StatusRunning, workerID, now, now).Scan(&job).Error
		}

		// sqlite runs one writer at a time; a conditional update is enough.
		var next Job
		if err := tx.Where("status = ? AND run_at <= ?", StatusPending, now).
			Order("run_at asc").
			First(&next).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		res := tx.Model(&Job{}).
			Where("id = ? AND status = ?", next.ID, StatusPending).
			Updates(map[string]any{
				"status":     StatusRunning,
				"locked_by":  workerID,
				"locked_at":  now,
				"updated_at": now,
			})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		return tx.First(&job, next.ID).Error
	})
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, nil
	}
	return &job, nil
}

func (r *Repo) MarkDone(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&Job{}).Where("id = ?", id).
		Updates(map[string]any{"status": StatusDone, "updated_at": r.now()}).Error
}

func (r *Repo) MarkFailed(ctx context.Context, id uint64, errMsg string) error {
	return r.DB.WithContext(ctx).Model(&Job{}).Where("id = ?", id).
		Updates(map[string]any{"status": StatusFailed, "last_error": errMsg, "updated_at": r.now()}).Error
}
