package dto

import (
	"github.com/shopspring/decimal"
)

type ClassificationPolicy struct {
	Accept []string `json:"accept"`
	Reject []string `json:"reject"`
}

type ClassificationRequest struct {
	Payload      string               `json:"payload"`
	MimeType     string               `json:"mimeType"`
	Filename     string               `json:"filename"`
	Policy       ClassificationPolicy `json:"policy"`
	Instructions string               `json:"instructions"`
}

type ClassificationVerdict struct {
	IsInvoice       bool             `json:"isInvoice"`
	DocumentType    string           `json:"documentType"`
	Confidence      int              `json:"confidence"`
	RejectionReason *string          `json:"rejectionReason,omitempty"`
	ExtractedFields *ExtractedFields `json:"extractedFields,omitempty"`
}

// ExtractedFields are all optional, the materializer defaults what is missing.
type ExtractedFields struct {
	SupplierName   *string          `json:"supplierName,omitempty"`
	DocumentNumber *string          `json:"documentNumber,omitempty"`
	DocumentDate   *string          `json:"documentDate,omitempty"`
	TotalAmount    *decimal.Decimal `json:"totalAmount,omitempty"`
	VatAmount      *decimal.Decimal `json:"vatAmount,omitempty"`
	BusinessType   *string          `json:"businessType,omitempty"`
	Category       *string          `json:"category,omitempty"`
}
