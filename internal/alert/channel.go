package alert

import (
	"context"
	"math/rand/v2"
	"sync"

	"rightguard/internal/contact"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Receipt is a channel's answer to a send. Ref identifies a "sent" message
// whose final status can be asked for later.
type Receipt struct {
	Status Status
	Ref    string
}

// Channel delivers one message to one recipient.
type Channel interface {
	Send(ctx context.Context, recipient, message string) (Receipt, error)
}

// Tracker is implemented by channels that can resolve a "sent" receipt.
type Tracker interface {
	Track(ctx context.Context, ref string) (Status, error)
}

// SimulatedChannel stands in for a real SMS, social or email provider. A
// message fails with probability FailureRate. With Deferred set the send
// only reports "sent" and the outcome is decided when the receipt is tracked.
type SimulatedChannel struct {
	Kind        contact.Kind
	FailureRate float64
	Deferred    bool
	Log         *zap.Logger

	mu   sync.Mutex
	rand func() float64
}

func NewSimulatedChannel(kind contact.Kind, failureRate float64, log *zap.Logger) *SimulatedChannel {
	return &SimulatedChannel{Kind: kind, FailureRate: failureRate, Log: log, rand: rand.Float64}
}

// WithRand replaces the random source, for deterministic tests.
func (c *SimulatedChannel) WithRand(f func() float64) *SimulatedChannel {
	c.mu.Lock()
	c.rand = f
	c.mu.Unlock()
	return c
}

func (c *SimulatedChannel) Send(ctx context.Context, recipient, message string) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	c.Log.Info("simulated alert",
		zap.String("channel", string(c.Kind)),
		zap.String("recipient", recipient),
		zap.Int("message_len", len(message)),
	)

	if c.Deferred {
		return Receipt{Status: StatusSent, Ref: uuid.NewString()}, nil
	}
	return Receipt{Status: c.outcome()}, nil
}

func (c *SimulatedChannel) Track(ctx context.Context, _ string) (Status, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return c.outcome(), nil
}

func (c *SimulatedChannel) outcome() Status {
	c.mu.Lock()
	r := c.rand
	c.mu.Unlock()
	if r == nil {
		r = rand.Float64
	}
	if r() < c.FailureRate {
		return StatusFailed
	}
	return StatusDelivered
}
