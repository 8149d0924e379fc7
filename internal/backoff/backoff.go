package backoff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Backoff retries an operation until it succeeds, fails permanently or
// runs out of attempts.
type Backoff interface {
	Retry(Operation) error
	RetryNotify(Operation, Notify) error
}

type (
	Operation func() error
	Notify    func(error, time.Duration)
)

// Config configures an exponential backoff. A zero MaxRetries disables
// retries.
type Config struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxRetries      uint
}

// DefaultConfig is used for connectivity checks against sources and
// destinations.
var DefaultConfig = Config{
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     30 * time.Second,
	MaxRetries:      5,
}

var ErrPermanent = errors.New("permanent error, do not retry")

// Permanent marks err so that it is not retried.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

type Provider func(ctx context.Context) Backoff

// NewProvider returns a backoff provider for cfg. A nil config or one
// without retries provides a backoff that runs the operation once.
func NewProvider(cfg *Config) Provider {
	if cfg == nil || cfg.MaxRetries == 0 {
		return func(context.Context) Backoff {
			return &retrier{bo: &backoff.StopBackOff{}}
		}
	}
	return func(ctx context.Context) Backoff {
		return NewExponentialBackoff(ctx, cfg)
	}
}

type retrier struct {
	bo backoff.BackOff
}

// NewExponentialBackoff returns an exponential backoff bound to ctx.
func NewExponentialBackoff(ctx context.Context, cfg *Config) Backoff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = cfg.InitialInterval
	exp.MaxInterval = cfg.MaxInterval

	var bo backoff.BackOff = exp
	if cfg.MaxRetries > 0 {
		bo = backoff.WithMaxRetries(bo, uint64(cfg.MaxRetries))
	}

	return &retrier{bo: backoff.WithContext(bo, ctx)}
}

func (r *retrier) Retry(op Operation) error {
	return r.RetryNotify(op, nil)
}

func (r *retrier) RetryNotify(op Operation, notify Notify) error {
	boOp := func() error {
		err := op()
		if errors.Is(err, ErrPermanent) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(boOp, r.bo, backoff.Notify(notify))
}
