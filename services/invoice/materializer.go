package invoice

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/interfaces"
	"github.com/customeros/invoicestack/internal/enum"
	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
	"github.com/customeros/invoicestack/internal/ledger"
	"github.com/customeros/invoicestack/internal/logger"
	"github.com/customeros/invoicestack/internal/models"
	"github.com/customeros/invoicestack/internal/tracing"
	"github.com/customeros/invoicestack/internal/utils"
	"github.com/customeros/invoicestack/services/storage"
)

const (
	DefaultSupplierName  = "Unknown supplier"
	DefaultBusinessType  = "standard"
	DefaultCategory      = "general"
	documentNumberPrefix = "EMAIL-"
	documentNumberLayout = "20060102150405"
	documentDateLayout   = "2006-01-02"
)

type materializer struct {
	log       logger.Logger
	invoices  interfaces.InvoiceRepository
	ledger    interfaces.LedgerRepository
	quota     interfaces.QuotaService
	storage   interfaces.StorageService
	publisher interfaces.EventPublisher
	now       func() time.Time
}

// NewInvoiceMaterializer wires the invoice writer. documentStorage may be nil, documents are then not kept.
func NewInvoiceMaterializer(
	log logger.Logger,
	invoices interfaces.InvoiceRepository,
	ledgerRepository interfaces.LedgerRepository,
	quota interfaces.QuotaService,
	documentStorage interfaces.StorageService,
	publisher interfaces.EventPublisher,
) interfaces.InvoiceMaterializer {
	return &materializer{
		log:       log,
		invoices:  invoices,
		ledger:    ledgerRepository,
		quota:     quota,
		storage:   documentStorage,
		publisher: publisher,
		now:       utils.Now,
	}
}

// Materialize writes the invoice for an accepted attachment and links it on the ledger entry.
// The quota slot reserved before classification is kept for the invoice, or given back when
// the invoice write fails. Only the invoice write can fail the call.
func (m *materializer) Materialize(ctx context.Context, userId string, entry *models.LedgerEntry, attachment *dto.Attachment, verdict *dto.ClassificationVerdict) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "materializer.Materialize")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagUser(span, userId)
	span.LogKV("messageId", entry.ProviderMessageID, "filename", attachment.Filename)

	invoice := BuildInvoice(userId, entry.ProviderMessageID, attachment, verdict, m.now())
	invoice.ID = utils.GenerateNanoIDWithPrefix("inv", 16)
	tracing.TagEntity(span, invoice.ID)

	if m.storage != nil {
		key := storage.DocumentKey(userId, invoice.ID, attachment.Filename, attachment.MimeType)
		if err := m.storage.Upload(ctx, key, attachment.Data, attachment.MimeType); err != nil {
			m.log.Errorf("Failed to store document %s for user %s: %v", attachment.Filename, userId, err)
		} else {
			invoice.StorageKey = key
		}
	}

	if err := m.invoices.Create(ctx, invoice); err != nil {
		tracing.TraceErr(span, err)
		m.rollback(ctx, userId, invoice)
		return "", errors.Wrapf(invoicestack_errors.ErrMaterializationFailed, "%s: %v", attachment.Filename, err)
	}

	// the invoice exists from here on, its follow-up writes must not be lost to a cancelled scan
	ctx = context.WithoutCancel(ctx)

	// the scanner settles the entry again once all attachments are done
	if err := m.ledger.Transition(ctx, entry, ledger.ProcessedOutcome(invoice.ID)); err != nil {
		m.log.Errorf("Failed to link invoice %s to message %s: %v", invoice.ID, entry.ProviderMessageID, err)
	}

	if err := m.publisher.PublishInvoiceCreated(ctx, invoice); err != nil {
		m.log.Errorf("Failed to publish invoice created %s: %v", invoice.ID, err)
	}

	return invoice.ID, nil
}

// rollback undoes the side effects of an invoice that could not be written
func (m *materializer) rollback(ctx context.Context, userId string, invoice *models.Invoice) {
	ctx = context.WithoutCancel(ctx)

	if err := m.quota.Release(ctx, userId); err != nil {
		m.log.Errorf("Failed to release quota slot of user %s: %v", userId, err)
	}
	if m.storage != nil && invoice.StorageKey != "" {
		if err := m.storage.Delete(ctx, invoice.StorageKey); err != nil {
			m.log.Errorf("Failed to delete orphaned document %s: %v", invoice.StorageKey, err)
		}
	}
}

// BuildInvoice maps a verdict onto an invoice record, filling the defaults for missing fields.
func BuildInvoice(userId, messageId string, attachment *dto.Attachment, verdict *dto.ClassificationVerdict, now time.Time) *models.Invoice {
	fields := verdict.ExtractedFields
	if fields == nil {
		fields = &dto.ExtractedFields{}
	}

	return &models.Invoice{
		UserID:          userId,
		SupplierName:    stringOrDefault(fields.SupplierName, DefaultSupplierName),
		DocumentNumber:  stringOrDefault(fields.DocumentNumber, documentNumberPrefix+now.Format(documentNumberLayout)),
		DocumentDate:    parseDocumentDate(fields.DocumentDate, now),
		DocumentType:    verdict.DocumentType,
		TotalAmount:     amountOrZero(fields.TotalAmount),
		VatAmount:       amountOrZero(fields.VatAmount),
		BusinessType:    stringOrDefault(fields.BusinessType, DefaultBusinessType),
		Category:        stringOrDefault(fields.Category, DefaultCategory),
		Confidence:      verdict.Confidence,
		Status:          enum.InvoiceStatusPendingReview,
		Source:          enum.InvoiceSourceEmail,
		SourceMessageID: messageId,
		Filename:        attachment.Filename,
		MimeType:        attachment.MimeType,
		ExtractedFields: toJSONMap(verdict.ExtractedFields),
	}
}

func stringOrDefault(value *string, defaultValue string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return defaultValue
	}
	return strings.TrimSpace(*value)
}

func amountOrZero(value *decimal.Decimal) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return value.Round(2)
}

func parseDocumentDate(value *string, now time.Time) time.Time {
	today := utils.StartOfDayInUTC(now)
	if value == nil {
		return today
	}
	date, err := time.Parse(documentDateLayout, strings.TrimSpace(*value))
	if err != nil {
		return today
	}
	return date
}

func toJSONMap(fields *dto.ExtractedFields) models.JSONMap {
	if fields == nil {
		return nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	var result models.JSONMap
	if err = json.Unmarshal(raw, &result); err != nil {
		return nil
	}
	return result
}
