package events

import "time"

const (
	ExchangeInvoicestack = "invoicestack"
	ExchangeDeadLetter   = "dead-letter"

	QueueInvoicestackEvents = "events-invoicestack"
	QueueScanRequests       = "scan-requests"
	DLQInvoicestackEvents   = QueueInvoicestackEvents + "-dlq"
	DLQScanRequests         = QueueScanRequests + "-dlq"

	RoutingKeyDeadLetter     = "dead-letter"
	RoutingKeyInvoiceCreated = "invoice.created"
	RoutingKeyScanCompleted  = "scan.completed"
	RoutingKeyScanRequested  = "scan.requested"

	DefaultMessageTTL          = 240 * time.Hour
	DefaultMaxRetries          = 3
	DefaultPublishTimeout      = 5 * time.Second
	DefaultReconnectBackoff    = time.Second
	DefaultMaxReconnectBackoff = 30 * time.Second
)
