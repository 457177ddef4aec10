// Package retry is the single retryable-call combinator shared by every
// supplier client. It wraps cenkalti/backoff with the policy the suppliers
// need: three attempts total, exponential backoff (1s, 2s, capped at 4s),
// and an explicit Retry-After hint honored exactly when the server sent one.
package retry

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/printshop/catalog/internal/domain/catalog"
)

// DefaultMaxAttempts bounds the total tries, first call included.
const DefaultMaxAttempts = 3

type options struct {
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	timer           backoff.Timer
	notify          backoff.Notify
}

// Option customizes a Do call.
type Option func(*options)

// WithMaxAttempts overrides the total attempt budget.
func WithMaxAttempts(n int) Option {
	return func(o *options) { o.maxAttempts = n }
}

// WithTimer injects the timer used between attempts. Tests pass a fake timer
// to observe sleep durations without waiting.
func WithTimer(t backoff.Timer) Option {
	return func(o *options) { o.timer = t }
}

// WithNotify registers a callback invoked before each backoff sleep.
func WithNotify(n backoff.Notify) Option {
	return func(o *options) { o.notify = n }
}

// Retryable reports whether an error is worth another attempt: server-side
// throttles, transient network failures, and timeouts. Authentication
// failures and not-found lookups are always permanent.
func Retryable(err error) bool {
	var authErr *catalog.AuthError
	if errors.As(err, &authErr) {
		return false
	}
	if errors.Is(err, catalog.ErrNotFound) {
		return false
	}
	var rateErr *catalog.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var transientErr *catalog.TransientError
	if errors.As(err, &transientErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// hintedBackOff lets one iteration override the exponential schedule with the
// server's Retry-After value.
type hintedBackOff struct {
	backoff.BackOff
	hint *time.Duration
}

func (h *hintedBackOff) NextBackOff() time.Duration {
	if h.hint != nil {
		d := *h.hint
		h.hint = nil
		return d
	}
	return h.BackOff.NextBackOff()
}

// Do invokes op until it succeeds, returns a permanent error, or the attempt
// budget is exhausted. The last error is returned on exhaustion.
func Do(ctx context.Context, op func() error, opts ...Option) error {
	o := options{
		maxAttempts:     DefaultMaxAttempts,
		initialInterval: time.Second,
		maxInterval:     4 * time.Second,
		timer:           nil,
		notify:          nil,
	}
	for _, opt := range opts {
		opt(&o)
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = o.initialInterval
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxInterval = o.maxInterval
	exp.MaxElapsedTime = 0

	hinted := &hintedBackOff{BackOff: exp}
	var policy backoff.BackOff = backoff.WithMaxRetries(hinted, uint64(o.maxAttempts-1))
	policy = backoff.WithContext(policy, ctx)

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return backoff.Permanent(err)
		}
		var rateErr *catalog.RateLimitError
		if errors.As(err, &rateErr) && rateErr.RetryAfter > 0 {
			after := rateErr.RetryAfter
			hinted.hint = &after
		}
		return err
	}

	return backoff.RetryNotifyWithTimer(wrapped, policy, o.notify, o.timer)
}
