package sync

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printshop/catalog/internal/domain/catalog"
)

func TestSession_Counters(t *testing.T) {
	s := NewSession(catalog.SupplierSSActivewear, false)

	s.RecordSuccess()
	s.RecordSuccess()
	s.RecordSkip()
	s.RecordFailure("NL3600", "transform", errors.New("bad payload"))

	assert.Equal(t, 4, s.Processed)
	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.Failed)
	require.Len(t, s.Errors, 1)
	assert.Equal(t, "NL3600", s.Errors[0].SKU)
	assert.Equal(t, "transform", s.Errors[0].Stage)
}

func TestSession_ErrorDetailCap(t *testing.T) {
	s := NewSession(catalog.SupplierSanMar, false)

	for i := 0; i < maxErrorDetails+50; i++ {
		s.RecordFailure(fmt.Sprintf("PC%d", i), "persist", errors.New("disk full"))
	}

	assert.Equal(t, maxErrorDetails+50, s.Failed, "counter keeps counting")
	assert.Len(t, s.Errors, maxErrorDetails, "detail list is bounded")
}

func TestSession_Summarize(t *testing.T) {
	s := NewSession(catalog.SupplierASColour, true)
	s.RecordSuccess()
	s.RecordSkip()
	s.Finish()

	summary := s.Summarize()

	assert.Equal(t, s.ID, summary.SessionID)
	assert.Equal(t, catalog.SupplierASColour, summary.Supplier)
	assert.True(t, summary.DryRun)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Skipped)
	assert.False(t, summary.EndedAt.IsZero())
	assert.NotEmpty(t, summary.Duration)
}
