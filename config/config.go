package config

import (
	"time"

	"github.com/customeros/invoicestack/internal/logger"
	"github.com/customeros/invoicestack/internal/tracing"
)

type AppConfig struct {
	APIPort     string `env:"PORT,required" envDefault:"12222" validate:"required"`
	APIKey      string `env:"API_KEY,required" validate:"required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
	Logger      *logger.Config
	Tracing     *tracing.JaegerConfig
}

type DatabaseConfig struct {
	Host            string `env:"INVOICESTACK_POSTGRES_HOST,required"`
	Port            string `env:"INVOICESTACK_POSTGRES_PORT,required" validate:"numeric"`
	User            string `env:"INVOICESTACK_POSTGRES_USER,required"`
	DBName          string `env:"INVOICESTACK_POSTGRES_DB_NAME,required"`
	Password        string `env:"INVOICESTACK_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"INVOICESTACK_POSTGRES_DB_MAX_CONN" envDefault:"25"`
	MaxIdleConn     int    `env:"INVOICESTACK_POSTGRES_DB_MAX_IDLE_CONN" envDefault:"10"`
	ConnMaxLifetime int    `env:"INVOICESTACK_POSTGRES_DB_CONN_MAX_LIFETIME" envDefault:"60"`
	LogLevel        string `env:"INVOICESTACK_POSTGRES_LOG_LEVEL" envDefault:"WARN" validate:"oneof=SILENT ERROR WARN INFO"`
	SSLMode         string `env:"INVOICESTACK_POSTGRES_SSL_MODE" envDefault:"require"`
}

type GoogleOAuthConfig struct {
	ClientID     string   `env:"GOOGLE_OAUTH_CLIENT_ID,required"`
	ClientSecret string   `env:"GOOGLE_OAUTH_CLIENT_SECRET,required"`
	RedirectURL  string   `env:"GOOGLE_OAUTH_REDIRECT_URL,required" validate:"url"`
	Scopes       []string `env:"GOOGLE_OAUTH_SCOPES" envDefault:"https://www.googleapis.com/auth/gmail.readonly"`
	// Empty means the Google endpoint; set in tests and sandboxes
	TokenURL string `env:"GOOGLE_OAUTH_TOKEN_URL"`
}

type GmailConfig struct {
	// Empty means the public Gmail API
	BaseURL string        `env:"GMAIL_API_BASE_URL"`
	Timeout time.Duration `env:"GMAIL_API_TIMEOUT" envDefault:"30s"`
}

type ClassifierConfig struct {
	URL               string        `env:"CLASSIFIER_URL,required" validate:"url"`
	APIKey            string        `env:"CLASSIFIER_API_KEY"`
	Timeout           time.Duration `env:"CLASSIFIER_TIMEOUT" envDefault:"60s"`
	RequestsPerMinute int           `env:"CLASSIFIER_REQUESTS_PER_MINUTE" envDefault:"60" validate:"gt=0"`
}

type ScannerConfig struct {
	PageSize             int64         `env:"SCANNER_PAGE_SIZE" envDefault:"50" validate:"gt=0,lte=500"`
	BatchCap             int           `env:"SCANNER_BATCH_CAP" envDefault:"20" validate:"gt=0"`
	InitialLookback      time.Duration `env:"SCANNER_INITIAL_LOOKBACK" envDefault:"8760h"`
	IncrementalLookback  time.Duration `env:"SCANNER_INCREMENTAL_LOOKBACK" envDefault:"168h"`
	InitialScanTimeout   time.Duration `env:"SCANNER_INITIAL_SCAN_TIMEOUT" envDefault:"10m"`
	StalePendingAfter    time.Duration `env:"SCANNER_STALE_PENDING_AFTER" envDefault:"30m"`
	DefaultDocumentLimit int           `env:"DEFAULT_DOCUMENT_LIMIT" envDefault:"50" validate:"gte=0"`
}

type R2StorageConfig struct {
	AccountID       string `env:"CLOUDFLARE_R2_ACCOUNT_ID"`
	AccessKeyID     string `env:"CLOUDFLARE_R2_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"CLOUDFLARE_R2_ACCESS_KEY_SECRET"`
	DocumentBucket  string `env:"BUCKET_NAME_INVOICE_DOCUMENT" envDefault:"invoice-documents"`
}

// Enabled reports whether accepted documents are uploaded to object storage
func (c *R2StorageConfig) Enabled() bool {
	return c != nil && c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != ""
}
