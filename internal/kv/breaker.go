package kv

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

// Breaker guards a remote Store with a circuit breaker. After MaxFailures
// consecutive failures every call fails fast with gobreaker.ErrOpenState
// until OpenTimeout has passed.
type Breaker struct {
	next Store
	cb   *gobreaker.CircuitBreaker
}

// abandoned marks a failure that happened after the caller's context was
// done. It says nothing about the health of the store.
type abandoned struct {
	err error
}

func (a abandoned) Error() string { return a.err.Error() }

func (a abandoned) Unwrap() error { return a.err }

type getResult struct {
	value string
	ok    bool
}

func NewBreaker(name string, next Store, cfg BreakerConfig, log logrus.FieldLogger) *Breaker {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 3
	}
	return &Breaker{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     cfg.OpenTimeout,
			IsSuccessful: func(err error) bool {
				var ab abandoned
				return err == nil || errors.As(err, &ab)
			},
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("store circuit breaker changed state")
			},
		}),
	}
}

func (b *Breaker) Get(ctx context.Context, key string) (string, bool, error) {
	res, err := b.execute(ctx, func() (interface{}, error) {
		v, ok, err := b.next.Get(ctx, key)
		return getResult{value: v, ok: ok}, err
	})
	if err != nil {
		return "", false, err
	}
	r := res.(getResult)
	return r.value, r.ok, nil
}

func (b *Breaker) Set(ctx context.Context, key, value string) error {
	_, err := b.execute(ctx, func() (interface{}, error) {
		return nil, b.next.Set(ctx, key, value)
	})
	return err
}

func (b *Breaker) Delete(ctx context.Context, key string) error {
	_, err := b.execute(ctx, func() (interface{}, error) {
		return nil, b.next.Delete(ctx, key)
	})
	return err
}

// execute runs req through the breaker. Errors returned once ctx is done
// are not counted against the store.
func (b *Breaker) execute(ctx context.Context, req func() (interface{}, error)) (interface{}, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		res, err := req()
		if err != nil && ctx.Err() != nil {
			return res, abandoned{err: err}
		}
		return res, err
	})
	var ab abandoned
	if errors.As(err, &ab) {
		return res, ab.err
	}
	return res, err
}

// State reports the breaker state, for logs and tests.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) Close() error {
	return Close(b.next)
}
