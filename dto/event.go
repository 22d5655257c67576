package dto

import (
	"github.com/shopspring/decimal"

	"github.com/customeros/invoicestack/internal/enum"
)

type Event struct {
	Event    EventDetails  `json:"event"`
	Metadata EventMetadata `json:"metadata"`
}

type EventDetails struct {
	Id         string          `json:"id"`
	UserId     string          `json:"userId"`
	EntityId   string          `json:"entityId"`
	EntityType enum.EntityType `json:"entityType"`
	EventType  string          `json:"eventType"`
	Data       interface{}     `json:"data"`
}

type EventMetadata struct {
	UberTraceId string `json:"uber-trace-id"`
	AppSource   string `json:"appSource"`
	Timestamp   string `json:"timestamp"`
}

type InvoiceCreated struct {
	InvoiceId       string          `json:"invoiceId"`
	SupplierName    string          `json:"supplierName"`
	DocumentNumber  string          `json:"documentNumber"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	SourceMessageId string          `json:"sourceMessageId"`
}

type ScanCompleted struct {
	Mode   enum.ScanMode `json:"mode"`
	Result ScanResult    `json:"result"`
}
