// Package capture runs a single recording session: a device stream copied
// into a sink until it is stopped, torn down, exhausted or timed out.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

const DefaultMaxDuration = 5 * time.Minute

var ErrAlreadyStopped = errors.New("session already stopped")

// Device hands out a media stream. Closing the stream releases the device
// and must unblock a pending Read.
type Device interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

type Reason string

const (
	ReasonStopped  Reason = "stopped"
	ReasonCanceled Reason = "canceled"
	ReasonEnded    Reason = "ended"
	ReasonTimeout  Reason = "timeout"
	ReasonFailed   Reason = "failed"
)

type Result struct {
	Bytes    int64
	Duration time.Duration
	Reason   Reason
}

type Recorder struct {
	Device      Device
	MaxDuration time.Duration
}

type Session struct {
	stream  io.ReadCloser
	started time.Time

	stop     chan struct{}
	stopOnce sync.Once
	release  sync.Once
	done     chan struct{}

	result Result
	err    error
}

type copied struct {
	n   int64
	err error
}

// Start acquires the device and begins copying into sink.
func (r Recorder) Start(ctx context.Context, sink io.Writer) (*Session, error) {
	if r.Device == nil {
		return nil, errors.New("no capture device")
	}
	max := r.MaxDuration
	if max <= 0 {
		max = DefaultMaxDuration
	}

	stream, err := r.Device.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}

	s := &Session{
		stream:  stream,
		started: time.Now(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	copyDone := make(chan copied, 1)
	go func() {
		n, err := io.Copy(sink, stream)
		copyDone <- copied{n: n, err: err}
	}()
	go s.supervise(ctx, max, copyDone)

	return s, nil
}

func (s *Session) supervise(ctx context.Context, max time.Duration, copyDone <-chan copied) {
	timer := time.NewTimer(max)
	defer timer.Stop()
	defer close(s.done)

	var reason Reason
	var res copied
	select {
	case res = <-copyDone:
		reason = ReasonEnded
		if res.err != nil {
			reason = ReasonFailed
			s.err = res.err
		}
		s.closeStream()
		s.finish(res.n, reason)
		return
	case <-s.stop:
		reason = ReasonStopped
	case <-ctx.Done():
		reason = ReasonCanceled
	case <-timer.C:
		reason = ReasonTimeout
	}

	s.closeStream()
	res = <-copyDone
	s.finish(res.n, reason)
}

func (s *Session) finish(n int64, reason Reason) {
	s.result = Result{Bytes: n, Duration: time.Since(s.started), Reason: reason}
}

func (s *Session) closeStream() {
	s.release.Do(func() {
		_ = s.stream.Close()
	})
}

// Stop ends the session and waits for it to wind down.
func (s *Session) Stop() (Result, error) {
	stopped := false
	s.stopOnce.Do(func() {
		close(s.stop)
		stopped = true
	})
	res, err := s.Wait()
	if !stopped && err == nil {
		return res, ErrAlreadyStopped
	}
	return res, err
}

func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Wait() (Result, error) {
	<-s.done
	return s.result, s.err
}
