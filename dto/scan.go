package dto

import "github.com/customeros/invoicestack/internal/enum"

type ScanResult struct {
	Found        int `json:"total_emails"`
	Processed    int `json:"processed"`
	InvoiceCount int `json:"invoices_found"`
	Skipped      int `json:"skipped"`
	Errored      int `json:"errored"`
}

type ScanRequest struct {
	UserId string `json:"userId" binding:"required"`
	Mode   string `json:"mode"`
}

type ScanRequested struct {
	UserId string        `json:"userId"`
	Mode   enum.ScanMode `json:"mode"`
}

type ConnectRequest struct {
	UserId string `json:"userId" binding:"required"`
	Code   string `json:"code" binding:"required"`
}
