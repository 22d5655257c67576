package quota

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/invoicestack/interfaces"
	"github.com/customeros/invoicestack/internal/logger"
	"github.com/customeros/invoicestack/internal/tracing"
)

type quotaService struct {
	log      logger.Logger
	profiles interfaces.ProfileRepository
}

func NewQuotaService(log logger.Logger, profiles interfaces.ProfileRepository) interfaces.QuotaService {
	return &quotaService{
		log:      log,
		profiles: profiles,
	}
}

// CheckAndReserve takes one document slot for the user. The count is raised by a single
// conditional update, so concurrent callers can never push it past the limit. A slot taken
// here is given back with Release when the document is not accepted.
func (s *quotaService) CheckAndReserve(ctx context.Context, userId string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "quotaService.CheckAndReserve")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagUser(span, userId)

	profile, err := s.profiles.GetOrCreate(ctx, userId)
	if err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}
	if !profile.HasCapacity() {
		span.SetTag("allowed", false)
		return false, nil
	}

	reserved, err := s.profiles.IncrementDocumentCount(ctx, userId)
	if err != nil {
		tracing.TraceErr(span, err)
		return false, errors.Wrapf(err, "user %s", userId)
	}
	if !reserved {
		s.log.Infof("Document quota of user %s was taken by a concurrent scan", userId)
	}
	span.SetTag("allowed", reserved)
	return reserved, nil
}

// Release gives back a slot taken by CheckAndReserve for a document that was not accepted
func (s *quotaService) Release(ctx context.Context, userId string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "quotaService.Release")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagUser(span, userId)

	if err := s.profiles.DecrementDocumentCount(ctx, userId); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "user %s", userId)
	}
	return nil
}
