package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/customeros/invoicestack/interfaces"
	"github.com/customeros/invoicestack/internal/models"
	"github.com/customeros/invoicestack/internal/tracing"
)

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) interfaces.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "invoiceRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, invoice.UserID)

	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to create invoice")
	}
	tracing.TagEntity(span, invoice.ID)

	return nil
}

func (r *invoiceRepository) GetById(ctx context.Context, id string) (*models.Invoice, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "invoiceRepository.GetById")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	var invoice models.Invoice
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) ListByUser(ctx context.Context, userId string, limit, offset int) ([]*models.Invoice, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "invoiceRepository.ListByUser")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userId)

	var invoices []*models.Invoice
	var count int64

	if err := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("user_id = ?", userId).
		Count(&count).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&invoices).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	return invoices, count, nil
}
