package ratelimit

import (
	"context"
	"sync"
	"time"

	bucket "github.com/juju/ratelimit"

	"github.com/printshop/catalog/internal/domain/catalog"
)

// Clock abstracts time for deterministic tests. It satisfies the token
// bucket's clock interface as well.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Budget is a requests-per-window allowance for one supplier.
type Budget struct {
	Requests int
	Window   time.Duration
}

// DefaultBudget is the conservative default applied when a supplier has no
// configured limit. Vendor documentation rarely confirms exact numbers, so
// configured values are treated as ceilings, not contracts.
var DefaultBudget = Budget{Requests: 120, Window: time.Minute}

// interval is the spacing between grants that keeps the budget over a window.
func (b Budget) interval() time.Duration {
	if b.Requests <= 0 || b.Window <= 0 {
		return DefaultBudget.interval()
	}
	return b.Window / time.Duration(b.Requests)
}

// Limiter throttles one supplier's outbound requests. Acquire blocks until a
// token is available; it never drops a request. Capacity is one token so
// grants are evenly spaced and a fresh limiter cannot burst past its budget.
type Limiter struct {
	supplier catalog.SupplierCode
	bucket   *bucket.Bucket
	clock    Clock
}

// NewLimiter builds a limiter for one supplier with the given budget.
func NewLimiter(supplier catalog.SupplierCode, budget Budget, clock Clock) *Limiter {
	if clock == nil {
		clock = realClock{}
	}
	return &Limiter{
		supplier: supplier,
		bucket:   bucket.NewBucketWithClock(budget.interval(), 1, clock),
		clock:    clock,
	}
}

// Acquire blocks the caller until the next token is available or the context
// is already cancelled. Cancellation is only checked at the boundaries; an
// in-flight wait completes (sessions cancel between page iterations).
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if wait := l.bucket.Take(1); wait > 0 {
		l.clock.Sleep(wait)
	}
	return ctx.Err()
}

// Supplier returns the supplier this limiter guards.
func (l *Limiter) Supplier() catalog.SupplierCode { return l.supplier }

// Registry hands out one shared limiter per supplier.
type Registry struct {
	mu       sync.Mutex
	limiters map[catalog.SupplierCode]*Limiter
	budgets  map[catalog.SupplierCode]Budget
	clock    Clock
}

// NewRegistry builds a registry with per-supplier budget overrides. Suppliers
// without an override get DefaultBudget.
func NewRegistry(budgets map[catalog.SupplierCode]Budget, clock Clock) *Registry {
	return &Registry{
		limiters: make(map[catalog.SupplierCode]*Limiter),
		budgets:  budgets,
		clock:    clock,
	}
}

// For returns the limiter for a supplier, creating it on first use.
func (r *Registry) For(supplier catalog.SupplierCode) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.limiters[supplier]; ok {
		return l
	}
	budget, ok := r.budgets[supplier]
	if !ok {
		budget = DefaultBudget
	}
	l := NewLimiter(supplier, budget, r.clock)
	r.limiters[supplier] = l
	return l
}
