package catalog

import (
	"errors"
	"fmt"
	"time"
)

// Structural validation errors.
var (
	ErrMissingSKU           = errors.New("catalog: product has no SKU")
	ErrUnknownSupplier      = errors.New("catalog: unknown supplier code")
	ErrNoVariants           = errors.New("catalog: product has no variants")
	ErrDuplicateVariantSKU  = errors.New("catalog: duplicate or empty variant SKU")
	ErrAvailabilityMismatch = errors.New("catalog: availability does not match variants")
)

// ErrNotFound signals a record the supplier or store does not have. The sync
// loop counts these as skipped, never as failures.
var ErrNotFound = errors.New("catalog: record not found")

// AuthError is fatal for a sync session: credentials were rejected or a token
// exchange failed. It is never retried.
type AuthError struct {
	Supplier SupplierCode
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication failed: %v", e.Supplier, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RateLimitError reports a server-side throttle hit despite the local
// limiter. RetryAfter is zero when the server gave no hint.
type RateLimitError struct {
	Supplier   SupplierCode
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Supplier, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.Supplier)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// TransientError wraps a failure worth retrying: connection resets, timeouts,
// 5xx responses. The retry combinator treats it as retryable; everything else
// except RateLimitError is permanent.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// RowError marks one malformed row in a bulk feed. The parser logs it and
// moves on; it never aborts the batch.
type RowError struct {
	Line   int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Line, e.Reason)
}

// PersistenceError wraps a failed write to the cache, append store, or
// curated-catalog store.
type PersistenceError struct {
	Target string // "cache", "append-store", "catalog-store"
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist to %s: %v", e.Target, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
