package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/invoicestack/config"
	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/interfaces"
	"github.com/customeros/invoicestack/internal/enum"
	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
	"github.com/customeros/invoicestack/internal/ledger"
	"github.com/customeros/invoicestack/internal/logger"
	"github.com/customeros/invoicestack/internal/models"
	"github.com/customeros/invoicestack/internal/tracing"
	"github.com/customeros/invoicestack/internal/utils"
)

// settleTimeout bounds the final ledger write, which runs detached from the scan's context
const settleTimeout = 10 * time.Second

type scannerService struct {
	log          logger.Logger
	cfg          *config.ScannerConfig
	credentials  interfaces.CredentialService
	credentialDB interfaces.MailCredentialRepository
	ledger       interfaces.LedgerRepository
	provider     interfaces.MailProvider
	extractor    interfaces.AttachmentExtractor
	classifier   interfaces.ClassificationService
	materializer interfaces.InvoiceMaterializer
	publisher    interfaces.EventPublisher
	now          func() time.Time
}

type Dependencies struct {
	Credentials          interfaces.CredentialService
	CredentialRepository interfaces.MailCredentialRepository
	LedgerRepository     interfaces.LedgerRepository
	Provider             interfaces.MailProvider
	Extractor            interfaces.AttachmentExtractor
	Classifier           interfaces.ClassificationService
	Materializer         interfaces.InvoiceMaterializer
	Publisher            interfaces.EventPublisher
}

func NewScannerService(log logger.Logger, cfg *config.ScannerConfig, deps Dependencies) interfaces.ScannerService {
	return &scannerService{
		log:          log,
		cfg:          cfg,
		credentials:  deps.Credentials,
		credentialDB: deps.CredentialRepository,
		ledger:       deps.LedgerRepository,
		provider:     deps.Provider,
		extractor:    deps.Extractor,
		classifier:   deps.Classifier,
		materializer: deps.Materializer,
		publisher:    deps.Publisher,
		now:          utils.Now,
	}
}

// messageResult is what one handled message contributes to the scan summary
type messageResult struct {
	skipped  bool
	outcome  ledger.Outcome
	invoices int
}

// Scan processes at most BatchCap unseen messages matching the invoice search. Only a missing
// credential, a failed token refresh or a failed search abort it; any other failure is recorded
// on the message's ledger entry and the scan moves on.
func (s *scannerService) Scan(ctx context.Context, userId string, mode enum.ScanMode) (*dto.ScanResult, error) {
	ctx = utils.SetUserIdInContext(ctx, userId)
	span, ctx := opentracing.StartSpanFromContext(ctx, "scannerService.Scan")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagUser(span, userId)
	span.SetTag("mode", mode.String())

	if userId == "" {
		err := invoicestack_errors.ErrUserIdMissing
		tracing.TraceErr(span, err)
		return nil, err
	}
	if !mode.IsValid() {
		err := errors.Wrapf(invoicestack_errors.ErrInvalidScanMode, "mode %q", mode)
		tracing.TraceErr(span, err)
		return nil, err
	}

	startedAt := s.now()

	credential, err := s.credentials.EnsureValidCredential(ctx, userId)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	query := BuildQuery(LowerBound(mode, credential, s.cfg, startedAt))
	span.LogKV("query", query)

	messageIds, err := s.provider.SearchMessages(ctx, credential.AccessToken, query, s.cfg.PageSize)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "user %s", userId)
	}

	result := dto.ScanResult{Found: len(messageIds)}
	for _, messageId := range messageIds {
		if result.Processed >= s.cfg.BatchCap {
			s.log.Infof("Batch cap of %d reached for user %s, %d messages left for the next scan",
				s.cfg.BatchCap, userId, result.Found-result.Processed-result.Skipped)
			break
		}
		if ctx.Err() != nil {
			s.log.Warnf("Scan for user %s interrupted: %v", userId, ctx.Err())
			break
		}

		existing, err := s.ledger.Get(ctx, userId, messageId)
		if err != nil {
			s.log.Errorf("Failed to read ledger for message %s of user %s: %v", messageId, userId, err)
			result.Errored++
			continue
		}
		if ledger.IsStalePending(existing, startedAt, s.cfg.StalePendingAfter) {
			s.log.Warnf("Message %s of user %s was claimed at %s and never settled, recording it as errored",
				messageId, userId, existing.ProcessedAt.Format(time.RFC3339))
			s.settle(ctx, existing, ledger.ErroredOutcome(ledger.ReasonInterrupted))
			result.Errored++
			continue
		}
		if ledger.ShouldSkip(existing) {
			result.Skipped++
			continue
		}

		r := s.processMessage(ctx, userId, credential.AccessToken, messageId)
		if r.skipped {
			result.Skipped++
			continue
		}
		result.Processed++
		result.InvoiceCount += r.invoices
		if r.outcome.Kind() == ledger.Errored {
			result.Errored++
		}
	}

	if err = s.credentialDB.UpdateLastSyncAt(ctx, userId, startedAt); err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("Failed to update last sync for user %s: %v", userId, err)
	}

	if err = s.publisher.PublishScanCompleted(ctx, userId, mode, result); err != nil {
		s.log.Errorf("Failed to publish scan completed for user %s: %v", userId, err)
	}

	tracing.LogObjectAsJson(span, "result", result)
	s.log.Infof("Scan %s for user %s: found %d, processed %d, invoices %d, skipped %d, errored %d",
		mode, userId, result.Found, result.Processed, result.InvoiceCount, result.Skipped, result.Errored)

	return &result, nil
}

// processMessage claims the message on the ledger and settles it with the outcome of its attachments
func (s *scannerService) processMessage(ctx context.Context, userId, accessToken, messageId string) (r messageResult) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "scannerService.processMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagUser(span, userId)
	span.SetTag("provider_message_id", messageId)

	message, fetchErr := s.provider.GetMessage(ctx, accessToken, messageId)

	entry := &models.LedgerEntry{
		UserID:            userId,
		ProviderMessageID: messageId,
		ProcessedAt:       s.now(),
	}
	if message != nil {
		entry.Subject = utils.TruncateRunes(message.Subject, models.LedgerSubjectMaxLength)
	}

	if err := s.ledger.Claim(ctx, entry); err != nil {
		if errors.Is(err, invoicestack_errors.ErrAlreadyRecorded) {
			// a concurrent scan got there first
			return messageResult{skipped: true}
		}
		tracing.TraceErr(span, err)
		s.log.Errorf("Failed to claim message %s of user %s: %v", messageId, userId, err)
		return messageResult{outcome: ledger.ErroredOutcome(err.Error())}
	}

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic while processing message %s: %v", messageId, rec)
			tracing.TraceErr(span, err)
			s.log.Errorf("%v", err)
			r = messageResult{outcome: ledger.ErroredOutcome(ledger.ReasonInterrupted)}
			s.settle(ctx, entry, r.outcome)
		}
	}()

	if fetchErr != nil {
		tracing.TraceErr(span, fetchErr)
		s.log.Warnf("Failed to fetch message %s of user %s: %v", messageId, userId, fetchErr)
		outcome := ledger.ErroredOutcome(fetchErr.Error())
		s.settle(ctx, entry, outcome)
		return messageResult{outcome: outcome}
	}

	accumulator := s.processAttachments(ctx, userId, accessToken, entry, message)
	entry.Attachments = accumulator.Filenames()
	outcome := accumulator.Outcome()
	s.settle(ctx, entry, outcome)
	span.LogKV("outcome", outcome.Kind().String())

	return messageResult{outcome: outcome, invoices: len(accumulator.InvoiceIds())}
}

func (s *scannerService) processAttachments(ctx context.Context, userId, accessToken string, entry *models.LedgerEntry, message *dto.MailMessage) *ledger.Accumulator {
	accumulator := ledger.NewAccumulator()

	attachments, errs := s.extractor.ExtractAttachments(ctx, accessToken, message)
	for _, err := range errs {
		accumulator.Fail(err.Error())
	}

	for _, attachment := range attachments {
		accumulator.Seen(attachment.Filename)

		verdict, err := s.classifier.Classify(ctx, userId, attachment.Data, attachment.MimeType, attachment.Filename)
		if errors.Is(err, invoicestack_errors.ErrQuotaExceeded) {
			accumulator.Reject(attachment.Filename + ": " + err.Error())
			continue
		}
		if err != nil {
			s.log.Warnf("Failed to classify %s of message %s: %v", attachment.Filename, message.Id, err)
			accumulator.Fail(attachment.Filename + ": " + err.Error())
			continue
		}

		if !verdict.IsInvoice {
			accumulator.Reject(attachment.Filename + ": " + rejectionReason(verdict))
			continue
		}

		invoiceId, err := s.materializer.Materialize(ctx, userId, entry, attachment, verdict)
		if err != nil {
			s.log.Errorf("Failed to materialize %s of message %s: %v", attachment.Filename, message.Id, err)
			accumulator.Fail(err.Error())
			continue
		}
		accumulator.Accept(invoiceId)
	}

	return accumulator
}

// settle writes the final outcome even when the scan's context is already cancelled, so a claimed
// entry does not stay pending.
func (s *scannerService) settle(ctx context.Context, entry *models.LedgerEntry, outcome ledger.Outcome) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	if err := s.ledger.Transition(ctx, entry, outcome); err != nil {
		s.log.Errorf("Failed to record %s for message %s of user %s: %v",
			outcome.Kind(), entry.ProviderMessageID, entry.UserID, err)
	}
}

func rejectionReason(verdict *dto.ClassificationVerdict) string {
	if verdict.RejectionReason != nil && *verdict.RejectionReason != "" {
		return *verdict.RejectionReason
	}
	if verdict.DocumentType != "" {
		return "not an invoice (" + verdict.DocumentType + ")"
	}
	return "not an invoice"
}

// TriggerInitialScan runs an initial scan in the background, detached from the caller's context
func (s *scannerService) TriggerInitialScan(userId string) {
	go func() {
		defer tracing.RecoverAndLogToJaeger(s.log)

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.InitialScanTimeout)
		defer cancel()
		ctx = utils.WithCustomContext(ctx, &utils.CustomContext{AppSource: utils.AppSourceApi, UserId: userId})

		if _, err := s.Scan(ctx, userId, enum.ScanModeInitial); err != nil {
			s.log.Errorf("Initial scan for user %s failed: %v", userId, err)
		}
	}()
}
