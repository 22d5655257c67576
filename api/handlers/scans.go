package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/interfaces"
	"github.com/customeros/invoicestack/internal/enum"
	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
	"github.com/customeros/invoicestack/internal/tracing"
)

type ScansHandler struct {
	scanner interfaces.ScannerService
}

func NewScansHandler(scanner interfaces.ScannerService) *ScansHandler {
	return &ScansHandler{
		scanner: scanner,
	}
}

// Trigger runs a scan synchronously and returns its summary
func (h *ScansHandler) Trigger() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "ScansHandler.Trigger")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var req dto.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tracing.TagUser(span, req.UserId)

		mode, ok := enum.ParseScanMode(req.Mode)
		if !ok {
			err := errors.Wrapf(invoicestack_errors.ErrInvalidScanMode, "mode %q", req.Mode)
			tracing.TraceErr(span, err)
			respondWithError(c, err)
			return
		}

		result, err := h.scanner.Scan(ctx, req.UserId, mode)
		if err != nil {
			tracing.TraceErr(span, err)
			respondWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
