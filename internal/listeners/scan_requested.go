package listeners

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/interfaces"
	"github.com/customeros/invoicestack/internal/enum"
	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
	"github.com/customeros/invoicestack/internal/logger"
	"github.com/customeros/invoicestack/internal/tracing"
	"github.com/customeros/invoicestack/services/events"
)

type ScanRequestedListener struct {
	events.BaseEventListener
	scanner interfaces.ScannerService
}

func NewScanRequestedListener(logger logger.Logger, scanner interfaces.ScannerService) interfaces.EventListener {
	return &ScanRequestedListener{
		BaseEventListener: events.NewBaseEventListener(
			logger,
			events.GetEventType[dto.ScanRequested](),
			events.QueueScanRequests,
		),
		scanner: scanner,
	}
}

func (l *ScanRequestedListener) Handle(ctx context.Context, baseEvent any) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ScanRequestedListener.Handle")
	defer span.Finish()
	tracing.SetDefaultListenerSpanTags(ctx, span)
	tracing.LogObjectAsJson(span, "event", baseEvent)

	validatedEvent, err := l.ValidateBaseEvent(ctx, baseEvent)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	request, err := events.DecodeEventData[dto.ScanRequested](ctx, validatedEvent)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if request.UserId == "" {
		request.UserId = validatedEvent.Event.UserId
	}
	tracing.TagUser(span, request.UserId)

	mode, ok := enum.ParseScanMode(string(request.Mode))
	if !ok {
		err = errors.Wrapf(invoicestack_errors.ErrInvalidScanMode, "mode %q", request.Mode)
		tracing.TraceErr(span, err)
		return err
	}

	result, err := l.scanner.Scan(ctx, request.UserId, mode)
	if err != nil {
		// a user who disconnected since the request was queued is not worth a retry
		if errors.Is(err, invoicestack_errors.ErrNotConnected) {
			l.Logger.Infof("Skipping scan for disconnected user %s", request.UserId)
			return nil
		}
		tracing.TraceErr(span, err)
		return err
	}

	l.Logger.Infof("Scan %s for user %s done: %d found, %d invoices", mode, request.UserId, result.Found, result.InvoiceCount)
	return nil
}
