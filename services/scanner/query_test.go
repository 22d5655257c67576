package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/customeros/invoicestack/config"
	"github.com/customeros/invoicestack/internal/enum"
	"github.com/customeros/invoicestack/internal/models"
)

func TestBuildQuery(t *testing.T) {
	query := BuildQuery(time.Date(2024, 3, 7, 15, 0, 0, 0, time.UTC))

	assert.Equal(t, `has:attachment (invoice OR receipt OR "tax invoice" OR חשבונית OR קבלה) after:2024/03/07`, query)
}

func TestLowerBound(t *testing.T) {
	cfg := &config.ScannerConfig{InitialLookback: 365 * 24 * time.Hour, IncrementalLookback: 7 * 24 * time.Hour}
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-2 * time.Hour)
	old := now.Add(-30 * 24 * time.Hour)

	tests := []struct {
		name       string
		mode       enum.ScanMode
		lastSyncAt *time.Time
		expected   time.Time
	}{
		{name: "initial ignores last sync", mode: enum.ScanModeInitial, lastSyncAt: &recent, expected: now.Add(-365 * 24 * time.Hour)},
		{name: "incremental without last sync", mode: enum.ScanModeIncremental, expected: now.Add(-7 * 24 * time.Hour)},
		{name: "incremental with recent last sync", mode: enum.ScanModeIncremental, lastSyncAt: &recent, expected: recent},
		{name: "incremental with stale last sync", mode: enum.ScanModeIncremental, lastSyncAt: &old, expected: now.Add(-7 * 24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			credential := &models.MailCredential{UserID: "user-1", LastSyncAt: tt.lastSyncAt}
			assert.Equal(t, tt.expected, LowerBound(tt.mode, credential, cfg, now))
		})
	}
}
