package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/internal/enum"
	"github.com/customeros/invoicestack/internal/models"
)

type MailProvider struct {
	mock.Mock
}

func (m *MailProvider) SearchMessages(ctx context.Context, accessToken, query string, maxResults int64) ([]string, error) {
	args := m.Called(ctx, accessToken, query, maxResults)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MailProvider) GetMessage(ctx context.Context, accessToken, messageId string) (*dto.MailMessage, error) {
	args := m.Called(ctx, accessToken, messageId)
	message, _ := args.Get(0).(*dto.MailMessage)
	return message, args.Error(1)
}

func (m *MailProvider) GetAttachment(ctx context.Context, accessToken, messageId, attachmentId string) ([]byte, error) {
	args := m.Called(ctx, accessToken, messageId, attachmentId)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MailProvider) GetProfileAddress(ctx context.Context, accessToken string) (string, error) {
	args := m.Called(ctx, accessToken)
	return args.String(0), args.Error(1)
}

type TokenExchanger struct {
	mock.Mock
}

func (m *TokenExchanger) Exchange(ctx context.Context, code string) (*dto.TokenResponse, error) {
	args := m.Called(ctx, code)
	token, _ := args.Get(0).(*dto.TokenResponse)
	return token, args.Error(1)
}

func (m *TokenExchanger) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	args := m.Called(ctx, refreshToken)
	token, _ := args.Get(0).(*dto.TokenResponse)
	return token, args.Error(1)
}

type CredentialService struct {
	mock.Mock
}

func (m *CredentialService) EnsureValidCredential(ctx context.Context, userId string) (*models.MailCredential, error) {
	args := m.Called(ctx, userId)
	credential, _ := args.Get(0).(*models.MailCredential)
	return credential, args.Error(1)
}

func (m *CredentialService) Connect(ctx context.Context, userId, code string) (*models.MailCredential, error) {
	args := m.Called(ctx, userId, code)
	credential, _ := args.Get(0).(*models.MailCredential)
	return credential, args.Error(1)
}

func (m *CredentialService) Disconnect(ctx context.Context, userId string) error {
	return m.Called(ctx, userId).Error(0)
}

type AttachmentExtractor struct {
	mock.Mock
}

func (m *AttachmentExtractor) ExtractAttachments(ctx context.Context, accessToken string, message *dto.MailMessage) ([]*dto.Attachment, []error) {
	args := m.Called(ctx, accessToken, message)
	attachments, _ := args.Get(0).([]*dto.Attachment)
	errs, _ := args.Get(1).([]error)
	return attachments, errs
}

type ClassifierClient struct {
	mock.Mock
}

func (m *ClassifierClient) Classify(ctx context.Context, request dto.ClassificationRequest) (*dto.ClassificationVerdict, error) {
	args := m.Called(ctx, request)
	verdict, _ := args.Get(0).(*dto.ClassificationVerdict)
	return verdict, args.Error(1)
}

type ClassificationService struct {
	mock.Mock
}

func (m *ClassificationService) Classify(ctx context.Context, userId string, data []byte, mimeType, filename string) (*dto.ClassificationVerdict, error) {
	args := m.Called(ctx, userId, data, mimeType, filename)
	verdict, _ := args.Get(0).(*dto.ClassificationVerdict)
	return verdict, args.Error(1)
}

type QuotaService struct {
	mock.Mock
}

func (m *QuotaService) CheckAndReserve(ctx context.Context, userId string) (bool, error) {
	args := m.Called(ctx, userId)
	return args.Bool(0), args.Error(1)
}

func (m *QuotaService) Release(ctx context.Context, userId string) error {
	return m.Called(ctx, userId).Error(0)
}

type InvoiceMaterializer struct {
	mock.Mock
}

func (m *InvoiceMaterializer) Materialize(ctx context.Context, userId string, entry *models.LedgerEntry, attachment *dto.Attachment, verdict *dto.ClassificationVerdict) (string, error) {
	args := m.Called(ctx, userId, entry, attachment, verdict)
	return args.String(0), args.Error(1)
}

type ScannerService struct {
	mock.Mock
}

func (m *ScannerService) Scan(ctx context.Context, userId string, mode enum.ScanMode) (*dto.ScanResult, error) {
	args := m.Called(ctx, userId, mode)
	result, _ := args.Get(0).(*dto.ScanResult)
	return result, args.Error(1)
}

func (m *ScannerService) TriggerInitialScan(userId string) {
	m.Called(userId)
}

type StorageService struct {
	mock.Mock
}

func (m *StorageService) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

func (m *StorageService) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *EventPublisher) PublishScanRequested(ctx context.Context, userId string, mode enum.ScanMode) error {
	return m.Called(ctx, userId, mode).Error(0)
}

func (m *EventPublisher) PublishInvoiceCreated(ctx context.Context, invoice *models.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *EventPublisher) PublishScanCompleted(ctx context.Context, userId string, mode enum.ScanMode, result dto.ScanResult) error {
	return m.Called(ctx, userId, mode, result).Error(0)
}

func (m *EventPublisher) Close() error {
	return m.Called().Error(0)
}
