package repository

import (
	"gorm.io/gorm"

	"github.com/customeros/invoicestack/interfaces"
	"github.com/customeros/invoicestack/internal/models"
)

type Repositories struct {
	MailCredentialRepository interfaces.MailCredentialRepository
	LedgerRepository         interfaces.LedgerRepository
	InvoiceRepository        interfaces.InvoiceRepository
	ProfileRepository        interfaces.ProfileRepository
}

func InitRepositories(db *gorm.DB, defaultDocumentLimit int) *Repositories {
	return &Repositories{
		MailCredentialRepository: NewMailCredentialRepository(db),
		LedgerRepository:         NewLedgerRepository(db),
		InvoiceRepository:        NewInvoiceRepository(db),
		ProfileRepository:        NewProfileRepository(db, defaultDocumentLimit),
	}
}

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.MailCredential{},
		&models.LedgerEntry{},
		&models.Invoice{},
		&models.Profile{},
	)
}
