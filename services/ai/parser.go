package ai

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/customeros/invoicestack/dto"
	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
)

type rawVerdict struct {
	IsInvoice       *bool                `json:"isInvoice"`
	DocumentType    string               `json:"documentType"`
	Confidence      *float64             `json:"confidence"`
	RejectionReason *string              `json:"rejectionReason"`
	ExtractedFields *dto.ExtractedFields `json:"extractedFields"`
}

// ParseVerdict reads the classifier output. The JSON may be wrapped in a markdown
// code fence. Output without a boolean isInvoice is ErrInvalidClassifierResponse.
func ParseVerdict(body []byte) (*dto.ClassificationVerdict, error) {
	payload := stripCodeFence(body)
	if len(payload) == 0 {
		return nil, errors.Wrap(invoicestack_errors.ErrInvalidClassifierResponse, "empty output")
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	var raw rawVerdict
	if err := decoder.Decode(&raw); err != nil {
		return nil, errors.Wrapf(invoicestack_errors.ErrInvalidClassifierResponse, "unparsable output: %v", err)
	}
	if raw.IsInvoice == nil {
		return nil, errors.Wrap(invoicestack_errors.ErrInvalidClassifierResponse, "isInvoice is missing")
	}

	verdict := &dto.ClassificationVerdict{
		IsInvoice:       *raw.IsInvoice,
		DocumentType:    strings.TrimSpace(raw.DocumentType),
		RejectionReason: raw.RejectionReason,
		ExtractedFields: raw.ExtractedFields,
	}
	if raw.Confidence != nil {
		verdict.Confidence = clampConfidence(*raw.Confidence)
	}

	return verdict, nil
}

func clampConfidence(confidence float64) int {
	if math.IsNaN(confidence) || confidence < 0 {
		return 0
	}
	if confidence > 100 {
		return 100
	}
	return int(math.Round(confidence))
}

func stripCodeFence(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if !bytes.HasPrefix(trimmed, []byte("```")) {
		return trimmed
	}
	trimmed = bytes.TrimPrefix(trimmed, []byte("```"))
	// drop the language tag line
	if idx := bytes.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	} else {
		trimmed = bytes.TrimPrefix(trimmed, []byte("json"))
	}
	if idx := bytes.LastIndex(trimmed, []byte("```")); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return bytes.TrimSpace(trimmed)
}
