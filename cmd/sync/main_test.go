package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printshop/catalog/internal/domain/catalog"
	domainsync "github.com/printshop/catalog/internal/domain/sync"
)

func TestFlags_SinceValue(t *testing.T) {
	tests := []struct {
		name         string
		since        string
		updatedSince string
		want         string
		wantErr      bool
	}{
		{name: "neither set", want: ""},
		{name: "since only", since: "2026-08-01", want: "2026-08-01"},
		{name: "updated-since only", updatedSince: "2026-08-01", want: "2026-08-01"},
		{name: "both equal", since: "2026-08-01", updatedSince: "2026-08-01", want: "2026-08-01"},
		{name: "both conflicting", since: "2026-08-01", updatedSince: "2026-07-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &flags{since: tt.since, updatedSince: tt.updatedSince}
			got, err := f.sinceValue()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSince(t *testing.T) {
	got, err := parseSince("2026-08-15T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC), got)

	got, err = parseSince("2026-08-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), got)

	got, err = parseSince("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = parseSince("last tuesday")
	assert.Error(t, err)
}

func TestFeedFileName(t *testing.T) {
	assert.Equal(t, "", feedFileName(""))
	assert.Equal(t, "EPDD.csv", feedFileName("epdd"))
	assert.Equal(t, "PDD.csv", feedFileName("PDD"))
	assert.Equal(t, "Custom_Feed.csv", feedFileName("Custom_Feed.csv"))
}

func writeSummary(t *testing.T, root string, summary domainsync.Summary) {
	t.Helper()
	dir := filepath.Join(root, string(summary.Supplier)+"-"+summary.StartedAt.Format("20060102-150405")+"-"+summary.SessionID.String()[:8])
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data, err := json.Marshal(summary)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "summary.json"), data, 0o644))
}

func TestLastSuccessfulSync(t *testing.T) {
	root := t.TempDir()
	older := time.Date(2026, 8, 10, 6, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 20, 6, 0, 0, 0, time.UTC)

	writeSummary(t, root, domainsync.Summary{
		SessionID: uuid.New(), Supplier: catalog.SupplierSanMar, StartedAt: older,
	})
	writeSummary(t, root, domainsync.Summary{
		SessionID: uuid.New(), Supplier: catalog.SupplierSanMar, StartedAt: newer,
	})
	// Dry runs and failed runs never advance the watermark.
	writeSummary(t, root, domainsync.Summary{
		SessionID: uuid.New(), Supplier: catalog.SupplierSanMar,
		StartedAt: newer.Add(time.Hour), DryRun: true,
	})
	writeSummary(t, root, domainsync.Summary{
		SessionID: uuid.New(), Supplier: catalog.SupplierSanMar,
		StartedAt: newer.Add(2 * time.Hour), Failed: 3,
	})
	// Other suppliers do not count.
	writeSummary(t, root, domainsync.Summary{
		SessionID: uuid.New(), Supplier: catalog.SupplierASColour,
		StartedAt: newer.Add(3 * time.Hour),
	})

	got, err := lastSuccessfulSync(root, catalog.SupplierSanMar)
	require.NoError(t, err)
	assert.True(t, got.Equal(newer))
}

func TestLastSuccessfulSync_NoSessions(t *testing.T) {
	_, err := lastSuccessfulSync(t.TempDir(), catalog.SupplierSanMar)
	assert.Error(t, err)
}
