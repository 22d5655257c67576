package interfaces

import (
	"context"
	"time"

	"github.com/customeros/invoicestack/internal/ledger"
	"github.com/customeros/invoicestack/internal/models"
)

type MailCredentialRepository interface {
	GetByUserId(ctx context.Context, userId string) (*models.MailCredential, error)
	Upsert(ctx context.Context, credential *models.MailCredential) error
	UpdateAccessToken(ctx context.Context, userId, accessToken string, expiry time.Time) error
	UpdateLastSyncAt(ctx context.Context, userId string, lastSyncAt time.Time) error
	Delete(ctx context.Context, userId string) error
	ListUserIds(ctx context.Context) ([]string, error)
}

type LedgerRepository interface {
	Get(ctx context.Context, userId, providerMessageId string) (*models.LedgerEntry, error)
	Claim(ctx context.Context, entry *models.LedgerEntry) error
	Transition(ctx context.Context, entry *models.LedgerEntry, outcome ledger.Outcome) error
	ListByUser(ctx context.Context, userId string, limit, offset int) ([]*models.LedgerEntry, int64, error)
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetById(ctx context.Context, id string) (*models.Invoice, error)
	ListByUser(ctx context.Context, userId string, limit, offset int) ([]*models.Invoice, int64, error)
}

type ProfileRepository interface {
	GetOrCreate(ctx context.Context, userId string) (*models.Profile, error)
	IncrementDocumentCount(ctx context.Context, userId string) (bool, error)
	DecrementDocumentCount(ctx context.Context, userId string) error
}
