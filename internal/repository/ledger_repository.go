package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/customeros/invoicestack/interfaces"
	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
	"github.com/customeros/invoicestack/internal/enum"
	"github.com/customeros/invoicestack/internal/ledger"
	"github.com/customeros/invoicestack/internal/models"
	"github.com/customeros/invoicestack/internal/tracing"
	"github.com/customeros/invoicestack/internal/utils"
)

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) interfaces.LedgerRepository {
	return &ledgerRepository{db: db}
}

// Get returns nil, nil when the message was never seen for the user
func (r *ledgerRepository) Get(ctx context.Context, userId, providerMessageId string) (*models.LedgerEntry, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ledgerRepository.Get")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userId)
	span.SetTag("provider_message_id", providerMessageId)

	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND provider_message_id = ?", userId, providerMessageId).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to get ledger entry")
	}

	return &entry, nil
}

// Claim inserts a pending entry. A concurrent or earlier claim for the same
// (user, message) pair fails with ErrAlreadyRecorded.
func (r *ledgerRepository) Claim(ctx context.Context, entry *models.LedgerEntry) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ledgerRepository.Claim")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, entry.UserID)
	span.SetTag("provider_message_id", entry.ProviderMessageID)

	entry.Status = enum.LedgerStatusPending
	entry.LinkedInvoiceID = nil
	entry.ReasonText = nil

	err := r.db.WithContext(ctx).Create(entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			span.SetTag("duplicate", true)
			return invoicestack_errors.ErrAlreadyRecorded
		}
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to claim ledger entry")
	}

	return nil
}

// Transition moves a pending entry to its final outcome. The update is conditional on
// the stored status so two writers cannot both resolve the same entry. A second
// acceptance of an already processed entry keeps the first linked invoice.
func (r *ledgerRepository) Transition(ctx context.Context, entry *models.LedgerEntry, outcome ledger.Outcome) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ledgerRepository.Transition")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, entry.UserID)
	span.SetTag("provider_message_id", entry.ProviderMessageID)
	span.SetTag("outcome", outcome.Kind().String())

	if !ledger.CanTransition(ledger.Pending, outcome.Kind()) {
		tracing.TraceErr(span, invoicestack_errors.ErrInvalidTransition)
		return invoicestack_errors.ErrInvalidTransition
	}

	now := utils.Now()
	updates := map[string]interface{}{
		"status":       outcome.Status(),
		"processed_at": now,
		"updated_at":   now,
	}
	switch outcome.Kind() {
	case ledger.Processed:
		updates["linked_invoice_id"] = outcome.InvoiceId()
		updates["reason_text"] = nil
	default:
		updates["linked_invoice_id"] = nil
		updates["reason_text"] = utils.StringPtrOrNil(outcome.Reason())
	}
	if len(entry.Attachments) > 0 {
		updates["attachments"] = entry.Attachments
	}

	result := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("user_id = ? AND provider_message_id = ? AND status = ?", entry.UserID, entry.ProviderMessageID, enum.LedgerStatusPending).
		Updates(updates)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return errors.Wrap(result.Error, "failed to update ledger entry")
	}
	if result.RowsAffected == 1 {
		entry.Status = outcome.Status()
		entry.ProcessedAt = now
		if outcome.Kind() == ledger.Processed {
			entry.LinkedInvoiceID = utils.StringPtr(outcome.InvoiceId())
			entry.ReasonText = nil
		} else {
			entry.LinkedInvoiceID = nil
			entry.ReasonText = utils.StringPtrOrNil(outcome.Reason())
		}
		return nil
	}

	current, err := r.Get(ctx, entry.UserID, entry.ProviderMessageID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if current == nil {
		err = errors.Wrap(invoicestack_errors.ErrInvalidTransition, "ledger entry was never claimed")
		tracing.TraceErr(span, err)
		return err
	}
	if ledger.CanTransition(ledger.FromEntry(current).Kind(), outcome.Kind()) {
		span.SetTag("first_link_kept", true)
		attachments := entry.Attachments
		*entry = *current
		if len(attachments) > 0 {
			err = r.db.WithContext(ctx).
				Model(&models.LedgerEntry{}).
				Where("id = ?", current.ID).
				Update("attachments", attachments).Error
			if err != nil {
				tracing.TraceErr(span, err)
				return errors.Wrap(err, "failed to update ledger attachments")
			}
			entry.Attachments = attachments
		}
		return nil
	}

	err = errors.Wrapf(invoicestack_errors.ErrInvalidTransition, "%s to %s", current.Status, outcome.Status())
	tracing.TraceErr(span, err)
	return err
}

// ListByUser returns the user's ledger, most recent first
func (r *ledgerRepository) ListByUser(ctx context.Context, userId string, limit, offset int) ([]*models.LedgerEntry, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ledgerRepository.ListByUser")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userId)

	var entries []*models.LedgerEntry
	var count int64

	if err := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("user_id = ?", userId).
		Count(&count).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("processed_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	return entries, count, nil
}
