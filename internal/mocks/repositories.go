package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/customeros/invoicestack/internal/ledger"
	"github.com/customeros/invoicestack/internal/models"
)

type MailCredentialRepository struct {
	mock.Mock
}

func (m *MailCredentialRepository) GetByUserId(ctx context.Context, userId string) (*models.MailCredential, error) {
	args := m.Called(ctx, userId)
	credential, _ := args.Get(0).(*models.MailCredential)
	return credential, args.Error(1)
}

func (m *MailCredentialRepository) Upsert(ctx context.Context, credential *models.MailCredential) error {
	return m.Called(ctx, credential).Error(0)
}

func (m *MailCredentialRepository) UpdateAccessToken(ctx context.Context, userId, accessToken string, expiry time.Time) error {
	return m.Called(ctx, userId, accessToken, expiry).Error(0)
}

func (m *MailCredentialRepository) UpdateLastSyncAt(ctx context.Context, userId string, lastSyncAt time.Time) error {
	return m.Called(ctx, userId, lastSyncAt).Error(0)
}

func (m *MailCredentialRepository) Delete(ctx context.Context, userId string) error {
	return m.Called(ctx, userId).Error(0)
}

func (m *MailCredentialRepository) ListUserIds(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	userIds, _ := args.Get(0).([]string)
	return userIds, args.Error(1)
}

type LedgerRepository struct {
	mock.Mock
}

func (m *LedgerRepository) Get(ctx context.Context, userId, providerMessageId string) (*models.LedgerEntry, error) {
	args := m.Called(ctx, userId, providerMessageId)
	entry, _ := args.Get(0).(*models.LedgerEntry)
	return entry, args.Error(1)
}

func (m *LedgerRepository) Claim(ctx context.Context, entry *models.LedgerEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *LedgerRepository) Transition(ctx context.Context, entry *models.LedgerEntry, outcome ledger.Outcome) error {
	return m.Called(ctx, entry, outcome).Error(0)
}

func (m *LedgerRepository) ListByUser(ctx context.Context, userId string, limit, offset int) ([]*models.LedgerEntry, int64, error) {
	args := m.Called(ctx, userId, limit, offset)
	entries, _ := args.Get(0).([]*models.LedgerEntry)
	return entries, args.Get(1).(int64), args.Error(2)
}

type InvoiceRepository struct {
	mock.Mock
}

func (m *InvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *InvoiceRepository) GetById(ctx context.Context, id string) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	invoice, _ := args.Get(0).(*models.Invoice)
	return invoice, args.Error(1)
}

func (m *InvoiceRepository) ListByUser(ctx context.Context, userId string, limit, offset int) ([]*models.Invoice, int64, error) {
	args := m.Called(ctx, userId, limit, offset)
	invoices, _ := args.Get(0).([]*models.Invoice)
	return invoices, args.Get(1).(int64), args.Error(2)
}

type ProfileRepository struct {
	mock.Mock
}

func (m *ProfileRepository) GetOrCreate(ctx context.Context, userId string) (*models.Profile, error) {
	args := m.Called(ctx, userId)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

func (m *ProfileRepository) IncrementDocumentCount(ctx context.Context, userId string) (bool, error) {
	args := m.Called(ctx, userId)
	return args.Bool(0), args.Error(1)
}

func (m *ProfileRepository) DecrementDocumentCount(ctx context.Context, userId string) error {
	return m.Called(ctx, userId).Error(0)
}
