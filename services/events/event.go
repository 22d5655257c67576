package events

import (
	"context"
	"reflect"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/internal/enum"
	"github.com/customeros/invoicestack/internal/tracing"
	"github.com/customeros/invoicestack/internal/utils"
)

// NewEvent wraps a payload in the envelope shared by every published message.
// The event type is the payload's struct name.
func NewEvent(ctx context.Context, span opentracing.Span, userId, entityId string, entityType enum.EntityType, data interface{}) dto.Event {
	tracingData := tracing.ExtractTextMapCarrier(span.Context())

	return dto.Event{
		Event: dto.EventDetails{
			Id:         utils.GenerateNanoIDWithPrefix("event", 21),
			UserId:     userId,
			EntityId:   entityId,
			EntityType: entityType,
			EventType:  eventTypeOf(data),
			Data:       data,
		},
		Metadata: dto.EventMetadata{
			UberTraceId: tracingData["uber-trace-id"],
			AppSource:   utils.GetAppSourceFromContext(ctx),
			Timestamp:   utils.Now().Format(time.RFC3339),
		},
	}
}

func eventTypeOf(data interface{}) string {
	messageType := reflect.TypeOf(data)
	if messageType == nil {
		return ""
	}
	if messageType.Kind() == reflect.Ptr {
		messageType = messageType.Elem()
	}
	return messageType.Name()
}

func GetEventType[T any]() string {
	var t T
	return eventTypeOf(t)
}
