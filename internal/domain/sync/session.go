package sync

import (
	"time"

	"github.com/google/uuid"

	"github.com/printshop/catalog/internal/domain/catalog"
)

// maxErrorDetails caps how many per-record errors a session keeps in full.
// Counters keep counting past the cap; only the detail list is bounded.
const maxErrorDetails = 100

// RecordError is one per-record failure captured during a sync run.
type RecordError struct {
	SKU     string    `json:"sku"`
	Stage   string    `json:"stage"` // fetch, transform, persist
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Session tracks a single orchestrator invocation for one supplier. It is
// owned by the orchestrator goroutine; no internal locking.
type Session struct {
	ID        uuid.UUID            `json:"id"`
	Supplier  catalog.SupplierCode `json:"supplier"`
	DryRun    bool                 `json:"dryRun"`
	StartedAt time.Time            `json:"startedAt"`
	EndedAt   time.Time            `json:"endedAt,omitzero"`

	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`

	Errors []RecordError `json:"errors,omitempty"`
}

// NewSession starts tracking a sync run for the given supplier.
func NewSession(supplier catalog.SupplierCode, dryRun bool) *Session {
	return &Session{
		ID:        uuid.New(),
		Supplier:  supplier,
		DryRun:    dryRun,
		StartedAt: time.Now().UTC(),
	}
}

// RecordSuccess counts one record that made it through transform and persist.
func (s *Session) RecordSuccess() {
	s.Processed++
	s.Succeeded++
}

// RecordSkip counts a record that was deliberately not persisted
// (not found upstream, filtered out, malformed bulk row).
func (s *Session) RecordSkip() {
	s.Processed++
	s.Skipped++
}

// RecordFailure counts a per-record failure and keeps its detail up to the cap.
func (s *Session) RecordFailure(sku, stage string, err error) {
	s.Processed++
	s.Failed++
	if len(s.Errors) >= maxErrorDetails {
		return
	}
	s.Errors = append(s.Errors, RecordError{
		SKU:     sku,
		Stage:   stage,
		Message: err.Error(),
		At:      time.Now().UTC(),
	})
}

// Finish stamps the session end time.
func (s *Session) Finish() {
	s.EndedAt = time.Now().UTC()
}

// Duration is the wall-clock span of the session; it reads the current time
// for sessions still in flight.
func (s *Session) Duration() time.Duration {
	if s.EndedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// Summary is the session artifact written alongside the record files.
type Summary struct {
	SessionID uuid.UUID            `json:"sessionId"`
	Supplier  catalog.SupplierCode `json:"supplier"`
	DryRun    bool                 `json:"dryRun"`
	StartedAt time.Time            `json:"startedAt"`
	EndedAt   time.Time            `json:"endedAt"`
	Duration  string               `json:"duration"`
	Processed int                  `json:"processed"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
	Skipped   int                  `json:"skipped"`
	Errors    []RecordError        `json:"errors,omitempty"`
}

// Summarize builds the summary artifact for a finished session.
func (s *Session) Summarize() Summary {
	return Summary{
		SessionID: s.ID,
		Supplier:  s.Supplier,
		DryRun:    s.DryRun,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		Duration:  s.Duration().Round(time.Millisecond).String(),
		Processed: s.Processed,
		Succeeded: s.Succeeded,
		Failed:    s.Failed,
		Skipped:   s.Skipped,
		Errors:    s.Errors,
	}
}
