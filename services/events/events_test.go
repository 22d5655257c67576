package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/interfaces"
	"github.com/customeros/invoicestack/internal/enum"
	"github.com/customeros/invoicestack/internal/logger"
	"github.com/customeros/invoicestack/internal/models"
	"github.com/customeros/invoicestack/internal/utils"
)

type recordingListener struct {
	BaseEventListener
	handled []dto.Event
	err     error
}

func (l *recordingListener) Handle(ctx context.Context, baseEvent any) error {
	event, err := l.ValidateBaseEvent(ctx, baseEvent)
	if err != nil {
		return err
	}
	l.handled = append(l.handled, *event)
	return l.err
}

func TestNewEvent_Envelope(t *testing.T) {
	ctx := utils.SetAppSourceInContext(context.Background(), "invoicestack-cron")
	span := opentracing.StartSpan("test")
	defer span.Finish()

	event := NewEvent(ctx, span, "user-1", "inv_1", enum.INVOICE, dto.InvoiceCreated{
		InvoiceId:   "inv_1",
		TotalAmount: decimal.RequireFromString("118.00"),
	})

	assert.Contains(t, event.Event.Id, "event_")
	assert.Equal(t, "InvoiceCreated", event.Event.EventType)
	assert.Equal(t, "user-1", event.Event.UserId)
	assert.Equal(t, "inv_1", event.Event.EntityId)
	assert.Equal(t, enum.INVOICE, event.Event.EntityType)
	assert.Equal(t, "invoicestack-cron", event.Metadata.AppSource)
	assert.NotEmpty(t, event.Metadata.Timestamp)
}

func TestGetEventType(t *testing.T) {
	assert.Equal(t, "ScanRequested", GetEventType[dto.ScanRequested]())
	assert.Equal(t, "ScanCompleted", GetEventType[*dto.ScanCompleted]())
}

func TestDecodeEventData_RoundTripsThroughJson(t *testing.T) {
	span := opentracing.StartSpan("test")
	defer span.Finish()
	original := NewEvent(context.Background(), span, "user-1", "user-1", enum.MAIL_SCAN,
		dto.ScanRequested{UserId: "user-1", Mode: enum.ScanModeInitial})

	body, err := json.Marshal(original)
	require.NoError(t, err)
	var received dto.Event
	require.NoError(t, json.Unmarshal(body, &received))

	decoded, err := DecodeEventData[dto.ScanRequested](context.Background(), &received)
	require.NoError(t, err)
	assert.Equal(t, "user-1", decoded.UserId)
	assert.Equal(t, enum.ScanModeInitial, decoded.Mode)
}

func newTestSubscriber(t *testing.T) *RabbitMQSubscriber {
	return &RabbitMQSubscriber{
		logger:    logger.NewFromZap(zaptest.NewLogger(t)),
		listeners: make(map[string]interfaces.EventListener),
	}
}

func marshalEvent(t *testing.T, data interface{}) []byte {
	span := opentracing.StartSpan("test")
	defer span.Finish()
	body, err := json.Marshal(NewEvent(context.Background(), span, "user-1", "user-1", enum.MAIL_SCAN, data))
	require.NoError(t, err)
	return body
}

func TestProcessMessage_DispatchesToListener(t *testing.T) {
	subscriber := newTestSubscriber(t)
	listener := &recordingListener{BaseEventListener: NewBaseEventListener(subscriber.logger, "ScanRequested", QueueScanRequests)}
	subscriber.RegisterListener(listener)

	err := subscriber.ProcessMessage(context.Background(),
		marshalEvent(t, dto.ScanRequested{UserId: "user-1", Mode: enum.ScanModeIncremental}), QueueScanRequests)

	require.NoError(t, err)
	require.Len(t, listener.handled, 1)
	assert.Equal(t, "user-1", listener.handled[0].Event.UserId)
}

func TestProcessMessage_ListenerErrorIsReturned(t *testing.T) {
	subscriber := newTestSubscriber(t)
	listener := &recordingListener{
		BaseEventListener: NewBaseEventListener(subscriber.logger, "ScanRequested", QueueScanRequests),
		err:               errors.New("boom"),
	}
	subscriber.RegisterListener(listener)

	err := subscriber.ProcessMessage(context.Background(),
		marshalEvent(t, dto.ScanRequested{UserId: "user-1"}), QueueScanRequests)

	assert.EqualError(t, err, "boom")
}

func TestProcessMessage_DropsUnroutableEvents(t *testing.T) {
	subscriber := newTestSubscriber(t)
	listener := &recordingListener{BaseEventListener: NewBaseEventListener(subscriber.logger, "ScanRequested", QueueScanRequests)}
	subscriber.RegisterListener(listener)

	// no listener for the type
	err := subscriber.ProcessMessage(context.Background(),
		marshalEvent(t, dto.ScanCompleted{Mode: enum.ScanModeInitial}), QueueInvoicestackEvents)
	assert.NoError(t, err)

	// listener bound to a different queue
	err = subscriber.ProcessMessage(context.Background(),
		marshalEvent(t, dto.ScanRequested{UserId: "user-1"}), QueueInvoicestackEvents)
	assert.NoError(t, err)
	assert.Empty(t, listener.handled)

	err = subscriber.ProcessMessage(context.Background(), []byte("{not json"), QueueScanRequests)
	assert.Error(t, err)
}

func TestNoopPublisher(t *testing.T) {
	publisher := NewNoopPublisher(logger.NewFromZap(zaptest.NewLogger(t)))
	ctx := context.Background()

	assert.False(t, publisher.Enabled())
	assert.NoError(t, publisher.PublishInvoiceCreated(ctx, &models.Invoice{ID: "inv_1"}))
	assert.NoError(t, publisher.PublishScanCompleted(ctx, "user-1", enum.ScanModeInitial, dto.ScanResult{}))
	assert.NoError(t, publisher.PublishScanRequested(ctx, "user-1", enum.ScanModeIncremental))
	assert.NoError(t, publisher.Close())
}

func TestNewEventsService_WithoutURLIsDisabled(t *testing.T) {
	service, err := NewEventsService("", logger.NewFromZap(zaptest.NewLogger(t)), nil)

	require.NoError(t, err)
	assert.False(t, service.Publisher.Enabled())
	assert.Nil(t, service.Subscriber)
	assert.NoError(t, service.Close())
}
