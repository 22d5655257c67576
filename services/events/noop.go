package events

import (
	"context"

	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/interfaces"
	"github.com/customeros/invoicestack/internal/enum"
	"github.com/customeros/invoicestack/internal/logger"
	"github.com/customeros/invoicestack/internal/models"
)

// noopPublisher stands in when RABBITMQ_URL is not set
type noopPublisher struct {
	log logger.Logger
}

func NewNoopPublisher(log logger.Logger) interfaces.EventPublisher {
	return &noopPublisher{log: log}
}

func (p *noopPublisher) Enabled() bool {
	return false
}

func (p *noopPublisher) PublishInvoiceCreated(ctx context.Context, invoice *models.Invoice) error {
	p.log.Debugf("Event publishing disabled, dropping invoice created %s", invoice.ID)
	return nil
}

func (p *noopPublisher) PublishScanCompleted(ctx context.Context, userId string, mode enum.ScanMode, result dto.ScanResult) error {
	p.log.Debugf("Event publishing disabled, dropping scan completed for user %s", userId)
	return nil
}

func (p *noopPublisher) PublishScanRequested(ctx context.Context, userId string, mode enum.ScanMode) error {
	p.log.Debugf("Event publishing disabled, dropping scan request for user %s", userId)
	return nil
}

func (p *noopPublisher) Close() error {
	return nil
}
