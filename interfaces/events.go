package interfaces

import (
	"context"

	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/internal/enum"
	"github.com/customeros/invoicestack/internal/models"
)

type EventPublisher interface {
	// Enabled is false for the no-op publisher used when no broker is configured
	Enabled() bool
	PublishInvoiceCreated(ctx context.Context, invoice *models.Invoice) error
	PublishScanCompleted(ctx context.Context, userId string, mode enum.ScanMode, result dto.ScanResult) error
	PublishScanRequested(ctx context.Context, userId string, mode enum.ScanMode) error
	Close() error
}

type EventListener interface {
	Handle(ctx context.Context, baseEvent any) error
	GetEventType() string
	GetQueueName() string
}
