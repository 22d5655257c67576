package attachments

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/interfaces"
	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
	"github.com/customeros/invoicestack/internal/logger"
	"github.com/customeros/invoicestack/internal/tracing"
	"github.com/customeros/invoicestack/internal/utils"
)

type attachmentExtractor struct {
	log      logger.Logger
	provider interfaces.MailProvider
}

func NewAttachmentExtractor(log logger.Logger, provider interfaces.MailProvider) interfaces.AttachmentExtractor {
	return &attachmentExtractor{
		log:      log,
		provider: provider,
	}
}

// ExtractAttachments downloads every pdf or image attachment of the message. A failed
// download is returned in the error slice and does not stop its siblings.
func (s *attachmentExtractor) ExtractAttachments(ctx context.Context, accessToken string, message *dto.MailMessage) ([]*dto.Attachment, []error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "attachmentExtractor.ExtractAttachments")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("provider_message_id", message.Id)

	candidates := EligibleParts(message.Parts)
	span.LogKV("candidates", len(candidates))

	var attachments []*dto.Attachment
	var errs []error
	for _, part := range candidates {
		data, err := s.provider.GetAttachment(ctx, accessToken, message.Id, part.AttachmentId)
		if err != nil {
			tracing.TraceErr(span, err)
			s.log.Warnf("Failed to fetch attachment %s of message %s: %v", part.Filename, message.Id, err)
			if !errors.Is(err, invoicestack_errors.ErrProviderFetchFailed) {
				err = errors.Wrap(invoicestack_errors.ErrProviderFetchFailed, err.Error())
			}
			errs = append(errs, errors.Wrapf(err, "attachment %s", part.Filename))
			continue
		}
		attachments = append(attachments, &dto.Attachment{
			AttachmentId: part.AttachmentId,
			Filename:     part.Filename,
			MimeType:     utils.NormalizeContentType(part.MimeType),
			Data:         data,
		})
	}

	return attachments, errs
}

// EligibleParts walks the part tree in order and keeps named pdf or image attachments
func EligibleParts(parts []*dto.MailPart) []*dto.MailPart {
	var result []*dto.MailPart
	for _, part := range parts {
		if part == nil {
			continue
		}
		if isEligible(part) {
			result = append(result, part)
		}
		result = append(result, EligibleParts(part.Parts)...)
	}
	return result
}

func isEligible(part *dto.MailPart) bool {
	if part.Filename == "" || part.AttachmentId == "" {
		return false
	}
	return utils.IsPdfContentType(part.MimeType) || utils.IsImageContentType(part.MimeType)
}
