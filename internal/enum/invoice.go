package enum

type InvoiceStatus string

const (
	InvoiceStatusPendingReview InvoiceStatus = "pending_review"
	InvoiceStatusApproved      InvoiceStatus = "approved"
)

type InvoiceSource string

const (
	InvoiceSourceEmail  InvoiceSource = "email"
	InvoiceSourceManual InvoiceSource = "manual"
)

type EntityType string

const (
	INVOICE    EntityType = "invoice"
	MAIL_SCAN  EntityType = "mail_scan"
	CREDENTIAL EntityType = "credential"
)

func (e EntityType) String() string {
	return string(e)
}
