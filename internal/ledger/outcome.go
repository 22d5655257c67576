// Package ledger models the lifecycle of a processed-email entry as an explicit variant.
//
// A provider message moves from Unseen to Pending when a scan claims it (the row insert),
// and from Pending to exactly one of Processed, Rejected or Errored. Errored entries are
// terminal: a later scan finds the row and skips it, so failed messages are not retried.
package ledger

import (
	"strings"
	"time"

	"github.com/customeros/invoicestack/internal/enum"
	"github.com/customeros/invoicestack/internal/models"
)

// RetryErrored controls whether scans pick errored entries up again. Kept off until
// there is a product decision on automatic retries.
const RetryErrored = false

const (
	ReasonNoEligibleAttachments = "no pdf or image attachments"
	ReasonInterrupted           = "processing did not complete"
	reasonSeparator             = "; "
)

type Kind int

const (
	Unseen Kind = iota
	Pending
	Processed
	Rejected
	Errored
)

func (k Kind) String() string {
	switch k {
	case Pending:
		return "pending"
	case Processed:
		return "processed"
	case Rejected:
		return "rejected"
	case Errored:
		return "errored"
	default:
		return "unseen"
	}
}

// Outcome is the state of one ledger entry.
type Outcome struct {
	kind      Kind
	invoiceId string
	reason    string
}

func UnseenOutcome() Outcome {
	return Outcome{kind: Unseen}
}

func PendingOutcome() Outcome {
	return Outcome{kind: Pending}
}

func ProcessedOutcome(invoiceId string) Outcome {
	return Outcome{kind: Processed, invoiceId: invoiceId}
}

func RejectedOutcome(reason string) Outcome {
	return Outcome{kind: Rejected, reason: reason}
}

func ErroredOutcome(reason string) Outcome {
	return Outcome{kind: Errored, reason: reason}
}

func (o Outcome) Kind() Kind {
	return o.kind
}

func (o Outcome) InvoiceId() string {
	return o.invoiceId
}

func (o Outcome) Reason() string {
	return o.reason
}

func (o Outcome) Status() enum.LedgerStatus {
	switch o.kind {
	case Processed:
		return enum.LedgerStatusProcessed
	case Rejected:
		return enum.LedgerStatusRejected
	case Errored:
		return enum.LedgerStatusError
	default:
		return enum.LedgerStatusPending
	}
}

// FromEntry rebuilds the outcome stored on a ledger row. A nil entry is Unseen.
func FromEntry(entry *models.LedgerEntry) Outcome {
	if entry == nil {
		return UnseenOutcome()
	}
	reason := ""
	if entry.ReasonText != nil {
		reason = *entry.ReasonText
	}
	switch entry.Status {
	case enum.LedgerStatusProcessed:
		invoiceId := ""
		if entry.LinkedInvoiceID != nil {
			invoiceId = *entry.LinkedInvoiceID
		}
		return ProcessedOutcome(invoiceId)
	case enum.LedgerStatusRejected:
		return RejectedOutcome(reason)
	case enum.LedgerStatusError:
		return ErroredOutcome(reason)
	default:
		return PendingOutcome()
	}
}

// CanTransition lists the allowed moves. Processed to Processed keeps the first linked
// invoice when a sibling attachment of the same message is also accepted.
func CanTransition(from, to Kind) bool {
	switch from {
	case Unseen:
		return to == Pending
	case Pending:
		return to == Processed || to == Rejected || to == Errored
	case Processed:
		return to == Processed
	case Errored:
		return RetryErrored && to == Pending
	default:
		return false
	}
}

// ShouldSkip reports whether a scan must leave the message alone because it was already seen.
func ShouldSkip(entry *models.LedgerEntry) bool {
	if entry == nil {
		return false
	}
	return !(RetryErrored && entry.Status == enum.LedgerStatusError)
}

// IsStalePending reports whether a pending entry was claimed longer ago than after. Such an
// entry belongs to a scan that died before settling it.
func IsStalePending(entry *models.LedgerEntry, now time.Time, after time.Duration) bool {
	if entry == nil || entry.Status != enum.LedgerStatusPending || after <= 0 {
		return false
	}
	return now.Sub(entry.ProcessedAt) > after
}

func joinReasons(reasons []string) string {
	return strings.Join(reasons, reasonSeparator)
}
