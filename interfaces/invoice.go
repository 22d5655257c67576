package interfaces

import (
	"context"

	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/internal/models"
)

type InvoiceMaterializer interface {
	Materialize(ctx context.Context, userId string, entry *models.LedgerEntry, attachment *dto.Attachment, verdict *dto.ClassificationVerdict) (string, error)
}
