package scanner

import (
	"strings"
	"time"

	"github.com/customeros/invoicestack/config"
	"github.com/customeros/invoicestack/internal/enum"
	"github.com/customeros/invoicestack/internal/models"
	"github.com/customeros/invoicestack/internal/utils"
)

// invoice and receipt terms, English and Hebrew
var keywords = []string{
	"invoice",
	"receipt",
	`"tax invoice"`,
	"חשבונית",
	"קבלה",
}

const afterLayout = "2006/01/02"

// BuildQuery returns the provider search for attachment mails with invoice keywords sent after the bound
func BuildQuery(after time.Time) string {
	return "has:attachment (" + strings.Join(keywords, " OR ") + ") after:" + after.UTC().Format(afterLayout)
}

// LowerBound is now minus the initial lookback for initial scans. Incremental scans start at
// the last sync, but never further back than the incremental lookback.
func LowerBound(mode enum.ScanMode, credential *models.MailCredential, cfg *config.ScannerConfig, now time.Time) time.Time {
	if mode == enum.ScanModeInitial {
		return now.Add(-cfg.InitialLookback)
	}
	floor := now.Add(-cfg.IncrementalLookback)
	if credential == nil || credential.LastSyncAt == nil {
		return floor
	}
	return utils.MaxTime(*credential.LastSyncAt, floor)
}
