package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/customeros/invoicestack/interfaces"
	"github.com/customeros/invoicestack/internal/models"
	"github.com/customeros/invoicestack/internal/tracing"
)

const (
	defaultLedgerPageSize = 50
	maxLedgerPageSize     = 200
)

type LedgerEntryResponse struct {
	ProviderMessageId string    `json:"providerMessageId"`
	Status            string    `json:"status"`
	LinkedInvoiceId   *string   `json:"linkedInvoiceId,omitempty"`
	Reason            *string   `json:"reason,omitempty"`
	Subject           string    `json:"subject,omitempty"`
	Attachments       []string  `json:"attachments,omitempty"`
	ProcessedAt       time.Time `json:"processedAt"`
}

type LedgerResponse struct {
	Entries []LedgerEntryResponse `json:"entries"`
	Total   int64                 `json:"total"`
}

type LedgerHandler struct {
	ledger interfaces.LedgerRepository
}

func NewLedgerHandler(ledger interfaces.LedgerRepository) *LedgerHandler {
	return &LedgerHandler{
		ledger: ledger,
	}
}

// List returns the user's processed-email entries, newest first
func (h *LedgerHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "LedgerHandler.List")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		userId := c.Param("userId")
		limit := queryInt(c, "limit", defaultLedgerPageSize)
		if limit <= 0 || limit > maxLedgerPageSize {
			limit = defaultLedgerPageSize
		}
		offset := queryInt(c, "offset", 0)
		if offset < 0 {
			offset = 0
		}

		entries, total, err := h.ledger.ListByUser(ctx, userId, limit, offset)
		if err != nil {
			tracing.TraceErr(span, err)
			respondWithError(c, err)
			return
		}

		response := LedgerResponse{Entries: make([]LedgerEntryResponse, 0, len(entries)), Total: total}
		for _, entry := range entries {
			response.Entries = append(response.Entries, toLedgerEntryResponse(entry))
		}
		c.JSON(http.StatusOK, response)
	}
}

func toLedgerEntryResponse(entry *models.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ProviderMessageId: entry.ProviderMessageID,
		Status:            entry.Status.String(),
		LinkedInvoiceId:   entry.LinkedInvoiceID,
		Reason:            entry.ReasonText,
		Subject:           entry.Subject,
		Attachments:       entry.Attachments,
		ProcessedAt:       entry.ProcessedAt,
	}
}

func queryInt(c *gin.Context, name string, defaultValue int) int {
	value := c.Query(name)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
