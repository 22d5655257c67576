package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/customeros/invoicestack/dto"
	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
	"github.com/customeros/invoicestack/internal/logger"
	"github.com/customeros/invoicestack/internal/mocks"
)

func TestClassificationService_QuotaExhaustedSkipsClassifier(t *testing.T) {
	quota := &mocks.QuotaService{}
	client := &mocks.ClassifierClient{}
	quota.On("CheckAndReserve", mock.Anything, "user-1").Return(false, nil)
	service := NewClassificationService(logger.NewFromZap(zaptest.NewLogger(t)), quota, client)

	_, err := service.Classify(context.Background(), "user-1", []byte("%PDF"), "application/pdf", "invoice.pdf")
	assert.ErrorIs(t, err, invoicestack_errors.ErrQuotaExceeded)
	client.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything)
	quota.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestClassificationService_EncodesPayloadWithPolicy(t *testing.T) {
	quota := &mocks.QuotaService{}
	client := &mocks.ClassifierClient{}
	quota.On("CheckAndReserve", mock.Anything, "user-1").Return(true, nil)
	client.On("Classify", mock.Anything, mock.MatchedBy(func(r dto.ClassificationRequest) bool {
		return r.Payload == "JVBERg==" &&
			r.MimeType == "application/pdf" &&
			r.Filename == "invoice.pdf" &&
			len(r.Policy.Accept) == 3 &&
			len(r.Policy.Reject) == 6 &&
			r.Instructions != ""
	})).Return(&dto.ClassificationVerdict{IsInvoice: true, DocumentType: "invoice"}, nil)
	service := NewClassificationService(logger.NewFromZap(zaptest.NewLogger(t)), quota, client)

	verdict, err := service.Classify(context.Background(), "user-1", []byte("%PDF"), "application/pdf", "invoice.pdf")
	require.NoError(t, err)
	assert.True(t, verdict.IsInvoice)
	client.AssertExpectations(t)
	quota.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestClassificationService_ReleasesSlotForRejectedDocument(t *testing.T) {
	quota := &mocks.QuotaService{}
	client := &mocks.ClassifierClient{}
	quota.On("CheckAndReserve", mock.Anything, "user-1").Return(true, nil)
	quota.On("Release", mock.Anything, "user-1").Return(nil).Once()
	client.On("Classify", mock.Anything, mock.Anything).
		Return(&dto.ClassificationVerdict{IsInvoice: false, DocumentType: "bank_statement"}, nil)
	service := NewClassificationService(logger.NewFromZap(zaptest.NewLogger(t)), quota, client)

	verdict, err := service.Classify(context.Background(), "user-1", []byte("%PDF"), "application/pdf", "statement.pdf")
	require.NoError(t, err)
	assert.False(t, verdict.IsInvoice)
	quota.AssertExpectations(t)
}

func TestClassificationService_ReleasesSlotWhenClassifierFails(t *testing.T) {
	quota := &mocks.QuotaService{}
	client := &mocks.ClassifierClient{}
	ctx, cancel := context.WithCancel(context.Background())

	quota.On("CheckAndReserve", mock.Anything, "user-1").Return(true, nil)
	quota.On("Release", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), "user-1").
		Return(nil).Once()
	client.On("Classify", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled)
	service := NewClassificationService(logger.NewFromZap(zaptest.NewLogger(t)), quota, client)

	_, err := service.Classify(ctx, "user-1", []byte("%PDF"), "application/pdf", "invoice.pdf")
	assert.ErrorIs(t, err, context.Canceled)
	quota.AssertExpectations(t)
}
