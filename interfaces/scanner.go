package interfaces

import (
	"context"

	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/internal/enum"
)

type ScannerService interface {
	Scan(ctx context.Context, userId string, mode enum.ScanMode) (*dto.ScanResult, error)
	TriggerInitialScan(userId string)
}
