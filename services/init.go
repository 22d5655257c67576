package services

import (
	"github.com/customeros/invoicestack/config"
	"github.com/customeros/invoicestack/interfaces"
	"github.com/customeros/invoicestack/internal/logger"
	"github.com/customeros/invoicestack/internal/repository"
	"github.com/customeros/invoicestack/services/ai"
	"github.com/customeros/invoicestack/services/attachments"
	"github.com/customeros/invoicestack/services/events"
	"github.com/customeros/invoicestack/services/gmail"
	"github.com/customeros/invoicestack/services/invoice"
	"github.com/customeros/invoicestack/services/oauth"
	"github.com/customeros/invoicestack/services/quota"
	"github.com/customeros/invoicestack/services/scanner"
	"github.com/customeros/invoicestack/services/storage"
)

type Services struct {
	EventsService         *events.EventsService
	StorageService        interfaces.StorageService
	MailProvider          interfaces.MailProvider
	CredentialService     interfaces.CredentialService
	AttachmentExtractor   interfaces.AttachmentExtractor
	QuotaService          interfaces.QuotaService
	ClassificationService interfaces.ClassificationService
	InvoiceMaterializer   interfaces.InvoiceMaterializer
	ScannerService        interfaces.ScannerService
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	// events
	eventsService, err := events.NewEventsService(cfg.AppConfig.RabbitMQURL, log, events.DefaultPublisherConfig())
	if err != nil {
		return nil, err
	}

	// object storage, optional
	storageService, err := storage.NewR2StorageService(cfg.R2StorageConfig)
	if err != nil {
		_ = eventsService.Close()
		return nil, err
	}
	if storageService == nil {
		log.Warn("R2 storage not configured, accepted documents will not be kept")
	}

	mailProvider := gmail.NewGmailProvider(cfg.GmailConfig)
	credentialService := oauth.NewCredentialService(log, repos.MailCredentialRepository, oauth.NewGoogleTokenExchanger(cfg.GoogleOAuthConfig), mailProvider)
	attachmentExtractor := attachments.NewAttachmentExtractor(log, mailProvider)
	quotaService := quota.NewQuotaService(log, repos.ProfileRepository)
	classificationService := ai.NewClassificationService(log, quotaService, ai.NewClassifierClient(cfg.ClassifierConfig))
	materializer := invoice.NewInvoiceMaterializer(log, repos.InvoiceRepository, repos.LedgerRepository, quotaService, storageService, eventsService.Publisher)

	scannerService := scanner.NewScannerService(log, cfg.ScannerConfig, scanner.Dependencies{
		Credentials:          credentialService,
		CredentialRepository: repos.MailCredentialRepository,
		LedgerRepository:     repos.LedgerRepository,
		Provider:             mailProvider,
		Extractor:            attachmentExtractor,
		Classifier:           classificationService,
		Materializer:         materializer,
		Publisher:            eventsService.Publisher,
	})

	return &Services{
		EventsService:         eventsService,
		StorageService:        storageService,
		MailProvider:          mailProvider,
		CredentialService:     credentialService,
		AttachmentExtractor:   attachmentExtractor,
		QuotaService:          quotaService,
		ClassificationService: classificationService,
		InvoiceMaterializer:   materializer,
		ScannerService:        scannerService,
	}, nil
}
