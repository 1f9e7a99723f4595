package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// HandlerFunc processes one claimed job. A returned error marks the job
// FAILED; jobs are not retried.
type HandlerFunc func(ctx context.Context, job *Job) error

type Worker struct {
	ID       string
	Repo     *Repo
	Handlers map[string]HandlerFunc
	Interval time.Duration
	Log      *zap.Logger
}

// Run polls for due jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = 800 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.Log.Info("job worker started", zap.String("worker_id", w.ID), zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			w.Log.Info("job worker stopped", zap.String("worker_id", w.ID))
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
				w.Log.Warn("worker claim error", zap.Error(err))
			}
		}
	}
}

// RunOnce claims and handles at most one job. It reports whether a job ran.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.Repo.Claim(ctx, w.ID)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	w.handle(ctx, job)
	return true, nil
}

func (w *Worker) handle(ctx context.Context, job *Job) {
	log := w.Log.With(zap.Uint64("job_id", job.ID), zap.String("type", job.Type))

	h, ok := w.Handlers[job.Type]
	if !ok {
		log.Error("unknown job type")
		_ = w.Repo.MarkFailed(ctx, job.ID, "unknown job type")
		return
	}

	if err := h(ctx, job); err != nil {
		log.Warn("job failed", zap.Error(err))
		if err := w.Repo.MarkFailed(ctx, job.ID, err.Error()); err != nil {
			log.Error("mark failed", zap.Error(err))
		}
		return
	}
	if err := w.Repo.MarkDone(ctx, job.ID); err != nil {
		log.Error("mark done", zap.Error(err))
	}
}
