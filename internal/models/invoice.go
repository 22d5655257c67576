package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/customeros/invoicestack/internal/enum"
	"github.com/customeros/invoicestack/internal/utils"
)

// Invoice is a document accepted by the classifier and materialized from a mail attachment.
type Invoice struct {
	ID              string             `gorm:"column:id;type:varchar(50);primaryKey"`
	UserID          string             `gorm:"column:user_id;type:varchar(50);index;not null"`
	SupplierName    string             `gorm:"column:supplier_name;type:varchar(255);not null"`
	DocumentNumber  string             `gorm:"column:document_number;type:varchar(100);not null"`
	DocumentDate    time.Time          `gorm:"column:document_date;type:date;not null"`
	DocumentType    string             `gorm:"column:document_type;type:varchar(100)"`
	TotalAmount     decimal.Decimal    `gorm:"column:total_amount;type:numeric(14,2);not null;default:0"`
	VatAmount       decimal.Decimal    `gorm:"column:vat_amount;type:numeric(14,2);not null;default:0"`
	BusinessType    string             `gorm:"column:business_type;type:varchar(100)"`
	Category        string             `gorm:"column:category;type:varchar(100)"`
	Confidence      int                `gorm:"column:confidence"`
	Status          enum.InvoiceStatus `gorm:"column:status;type:varchar(50);index;not null"`
	Source          enum.InvoiceSource `gorm:"column:source;type:varchar(50);not null"`
	SourceMessageID string             `gorm:"column:source_message_id;type:varchar(255);index"`
	Filename        string             `gorm:"column:filename;type:varchar(500)"`
	MimeType        string             `gorm:"column:mime_type;type:varchar(255)"`
	StorageKey      string             `gorm:"column:storage_key;type:varchar(1000)"`
	ExtractedFields JSONMap            `gorm:"column:extracted_fields;type:jsonb"`
	CreatedAt       time.Time          `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (Invoice) TableName() string {
	return "invoices"
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = utils.GenerateNanoIDWithPrefix("inv", 16)
	}
	i.CreatedAt = utils.Now()
	i.UpdatedAt = i.CreatedAt
	return nil
}
