package ai

import (
	"strings"

	"github.com/customeros/invoicestack/dto"
)

var acceptedDocumentTypes = []string{
	"tax invoice",
	"VAT receipt",
	"invoice",
}

var rejectedDocumentTypes = []string{
	"purchase order",
	"transaction confirmation",
	"bank statement",
	"delivery note",
	"quote",
	"non-commercial correspondence",
}

// DefaultPolicy is the decision policy sent with every classification request
func DefaultPolicy() dto.ClassificationPolicy {
	return dto.ClassificationPolicy{
		Accept: append([]string(nil), acceptedDocumentTypes...),
		Reject: append([]string(nil), rejectedDocumentTypes...),
	}
}

func policyInstructions(policy dto.ClassificationPolicy) string {
	var sb strings.Builder
	sb.WriteString("Decide whether the attached document is a billable supplier document. ")
	sb.WriteString("Set isInvoice to true only for: ")
	sb.WriteString(strings.Join(policy.Accept, ", "))
	sb.WriteString(". Set isInvoice to false for: ")
	sb.WriteString(strings.Join(policy.Reject, ", "))
	sb.WriteString(", and anything else. Answer with JSON only: ")
	sb.WriteString(`{"isInvoice": bool, "documentType": string, "confidence": 0-100, "rejectionReason": string|null, `)
	sb.WriteString(`"extractedFields": {"supplierName", "documentNumber", "documentDate" (YYYY-MM-DD), "totalAmount", "vatAmount", "businessType", "category"}}`)
	return sb.String()
}
