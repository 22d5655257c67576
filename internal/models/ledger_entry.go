package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/customeros/invoicestack/internal/enum"
	"github.com/customeros/invoicestack/internal/utils"
)

// LedgerSubjectMaxLength is the size of the subject column, in characters
const LedgerSubjectMaxLength = 1000

// LedgerEntry marks a provider message as seen for a user. (user_id, provider_message_id) is unique.
type LedgerEntry struct {
	ID                string            `gorm:"column:id;type:varchar(50);primaryKey"`
	UserID            string            `gorm:"column:user_id;type:varchar(50);not null;uniqueIndex:idx_processed_emails_user_message,priority:1"`
	ProviderMessageID string            `gorm:"column:provider_message_id;type:varchar(255);not null;uniqueIndex:idx_processed_emails_user_message,priority:2"`
	Status            enum.LedgerStatus `gorm:"column:status;type:varchar(20);index;not null"`
	LinkedInvoiceID   *string           `gorm:"column:linked_invoice_id;type:varchar(50)"`
	ReasonText        *string           `gorm:"column:reason_text;type:text"`
	Subject           string            `gorm:"column:subject;type:varchar(1000)"`
	Attachments       pq.StringArray    `gorm:"column:attachments;type:text[]"`
	ProcessedAt       time.Time         `gorm:"column:processed_at;type:timestamp;not null"`
	CreatedAt         time.Time         `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (LedgerEntry) TableName() string {
	return "processed_emails"
}

func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = utils.GenerateNanoIDWithPrefix("led", 16)
	}
	e.CreatedAt = utils.Now()
	e.UpdatedAt = e.CreatedAt
	if e.ProcessedAt.IsZero() {
		e.ProcessedAt = e.CreatedAt
	}
	return nil
}
