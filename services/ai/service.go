package ai

import (
	"context"
	"encoding/base64"

	"github.com/opentracing/opentracing-go"

	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/interfaces"
	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
	"github.com/customeros/invoicestack/internal/logger"
	"github.com/customeros/invoicestack/internal/tracing"
)

type classificationService struct {
	log    logger.Logger
	quota  interfaces.QuotaService
	client interfaces.ClassifierClient
	policy dto.ClassificationPolicy
}

func NewClassificationService(log logger.Logger, quota interfaces.QuotaService, client interfaces.ClassifierClient) interfaces.ClassificationService {
	return &classificationService{
		log:    log,
		quota:  quota,
		client: client,
		policy: DefaultPolicy(),
	}
}

// Classify asks the classifier whether the document is an invoice. A quota slot is reserved
// first; a user at the limit gets ErrQuotaExceeded and no external call. The slot is kept
// only for an accepted document and handed to the materializer with it.
func (s *classificationService) Classify(ctx context.Context, userId string, data []byte, mimeType, filename string) (*dto.ClassificationVerdict, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "classificationService.Classify")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagUser(span, userId)
	span.LogKV("filename", filename, "mimeType", mimeType)

	allowed, err := s.quota.CheckAndReserve(ctx, userId)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if !allowed {
		tracing.TraceErr(span, invoicestack_errors.ErrQuotaExceeded)
		return nil, invoicestack_errors.ErrQuotaExceeded
	}

	verdict, err := s.client.Classify(ctx, dto.ClassificationRequest{
		Payload:      base64.StdEncoding.EncodeToString(data),
		MimeType:     mimeType,
		Filename:     filename,
		Policy:       s.policy,
		Instructions: policyInstructions(s.policy),
	})
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Warnf("Classification of %s failed for user %s: %v", filename, userId, err)
		s.release(ctx, userId)
		return nil, err
	}
	span.LogKV("isInvoice", verdict.IsInvoice, "documentType", verdict.DocumentType, "confidence", verdict.Confidence)

	if !verdict.IsInvoice {
		s.release(ctx, userId)
	}

	return verdict, nil
}

func (s *classificationService) release(ctx context.Context, userId string) {
	if err := s.quota.Release(context.WithoutCancel(ctx), userId); err != nil {
		s.log.Errorf("Failed to release quota slot of user %s: %v", userId, err)
	}
}
