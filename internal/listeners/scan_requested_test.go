package listeners

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/internal/enum"
	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
	"github.com/customeros/invoicestack/internal/logger"
	"github.com/customeros/invoicestack/internal/mocks"
	"github.com/customeros/invoicestack/services/events"
)

func scanRequestedEvent(userId, mode string) dto.Event {
	return dto.Event{
		Event: dto.EventDetails{
			Id:        "event_1",
			UserId:    userId,
			EntityId:  userId,
			EventType: "ScanRequested",
			Data:      map[string]interface{}{"userId": userId, "mode": mode},
		},
	}
}

func TestScanRequestedListener_Subscription(t *testing.T) {
	listener := NewScanRequestedListener(logger.NewFromZap(zaptest.NewLogger(t)), &mocks.ScannerService{})

	assert.Equal(t, "ScanRequested", listener.GetEventType())
	assert.Equal(t, events.QueueScanRequests, listener.GetQueueName())
}

func TestScanRequestedListener_Handle(t *testing.T) {
	scanner := &mocks.ScannerService{}
	scanner.On("Scan", mock.Anything, "user-1", enum.ScanModeIncremental).
		Return(&dto.ScanResult{Found: 3, InvoiceCount: 1}, nil).Once()
	listener := NewScanRequestedListener(logger.NewFromZap(zaptest.NewLogger(t)), scanner)

	err := listener.Handle(context.Background(), scanRequestedEvent("user-1", "incremental"))

	require.NoError(t, err)
	scanner.AssertExpectations(t)
}

func TestScanRequestedListener_DisconnectedUserIsAcked(t *testing.T) {
	scanner := &mocks.ScannerService{}
	scanner.On("Scan", mock.Anything, "user-1", enum.ScanModeInitial).
		Return(nil, errors.Wrap(invoicestack_errors.ErrNotConnected, "user-1"))
	listener := NewScanRequestedListener(logger.NewFromZap(zaptest.NewLogger(t)), scanner)

	err := listener.Handle(context.Background(), scanRequestedEvent("user-1", "initial"))

	assert.NoError(t, err)
}

func TestScanRequestedListener_RefreshFailureIsReturned(t *testing.T) {
	scanner := &mocks.ScannerService{}
	scanner.On("Scan", mock.Anything, "user-1", enum.ScanModeIncremental).
		Return(nil, invoicestack_errors.ErrRefreshFailed)
	listener := NewScanRequestedListener(logger.NewFromZap(zaptest.NewLogger(t)), scanner)

	err := listener.Handle(context.Background(), scanRequestedEvent("user-1", ""))

	assert.ErrorIs(t, err, invoicestack_errors.ErrRefreshFailed)
}

func TestScanRequestedListener_RejectsBadInput(t *testing.T) {
	scanner := &mocks.ScannerService{}
	listener := NewScanRequestedListener(logger.NewFromZap(zaptest.NewLogger(t)), scanner)

	err := listener.Handle(context.Background(), "not an event")
	assert.Error(t, err)

	err = listener.Handle(context.Background(), scanRequestedEvent("user-1", "full"))
	assert.ErrorIs(t, err, invoicestack_errors.ErrInvalidScanMode)

	err = listener.Handle(context.Background(), scanRequestedEvent("", "initial"))
	assert.ErrorIs(t, err, invoicestack_errors.ErrUserIdMissing)

	scanner.AssertNotCalled(t, "Scan", mock.Anything, mock.Anything, mock.Anything)
}
