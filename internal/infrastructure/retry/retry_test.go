package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printshop/catalog/internal/domain/catalog"
)

// fakeTimer records requested sleep durations and fires immediately.
type fakeTimer struct {
	ch     chan time.Time
	sleeps []time.Duration
}

func (t *fakeTimer) Start(d time.Duration) {
	t.sleeps = append(t.sleeps, d)
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	t.ch = ch
}

func (t *fakeTimer) Stop() {}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }

func transient(msg string) error {
	return &catalog.TransientError{Op: "GET /v2/products", Err: errors.New(msg)}
}

func TestDo_RetriesTransientErrorsWithExponentialBackoff(t *testing.T) {
	timer := &fakeTimer{}
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return transient("connection reset")
		}
		return nil
	}, WithTimer(timer))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, timer.sleeps)
}

func TestDo_GivesUpAfterThreeAttempts(t *testing.T) {
	timer := &fakeTimer{}
	attempts := 0
	failure := transient("upstream 503")

	err := Do(context.Background(), func() error {
		attempts++
		return failure
	}, WithTimer(timer))

	require.Error(t, err)
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 3, attempts)
	assert.Len(t, timer.sleeps, 2, "two sleeps between three attempts")
}

func TestDo_AuthErrorIsPermanent(t *testing.T) {
	timer := &fakeTimer{}
	attempts := 0
	authErr := &catalog.AuthError{Supplier: catalog.SupplierASColour, Err: errors.New("401")}

	err := Do(context.Background(), func() error {
		attempts++
		return authErr
	}, WithTimer(timer))

	require.Error(t, err)
	var got *catalog.AuthError
	assert.ErrorAs(t, err, &got)
	assert.Equal(t, 1, attempts, "auth failures are never retried")
	assert.Empty(t, timer.sleeps)
}

func TestDo_NotFoundIsPermanent(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func() error {
		attempts++
		return catalog.ErrNotFound
	}, WithTimer(&fakeTimer{}))

	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Equal(t, 1, attempts)
}

func TestDo_HonorsRetryAfterExactly(t *testing.T) {
	timer := &fakeTimer{}
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		if attempts == 1 {
			return &catalog.RateLimitError{
				Supplier:   catalog.SupplierSSActivewear,
				RetryAfter: 2 * time.Second,
			}
		}
		return nil
	}, WithTimer(timer))

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, []time.Duration{2 * time.Second}, timer.sleeps,
		"exactly one pause of the advertised Retry-After duration")
}

func TestDo_RateLimitWithoutHintUsesBackoffSchedule(t *testing.T) {
	timer := &fakeTimer{}
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		if attempts == 1 {
			return &catalog.RateLimitError{Supplier: catalog.SupplierSanMar}
		}
		return nil
	}, WithTimer(timer))

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second}, timer.sleeps)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit", &catalog.RateLimitError{}, true},
		{"transient", transient("boom"), true},
		{"auth", &catalog.AuthError{Err: errors.New("denied")}, false},
		{"not found", catalog.ErrNotFound, false},
		{"plain error", errors.New("parse failure"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}
