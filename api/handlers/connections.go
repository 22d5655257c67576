package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/interfaces"
	"github.com/customeros/invoicestack/internal/tracing"
)

type ConnectionResponse struct {
	UserId      string `json:"userId"`
	MailAddress string `json:"mailAddress"`
}

type ConnectionsHandler struct {
	credentials interfaces.CredentialService
	scanner     interfaces.ScannerService
}

func NewConnectionsHandler(credentials interfaces.CredentialService, scanner interfaces.ScannerService) *ConnectionsHandler {
	return &ConnectionsHandler{
		credentials: credentials,
		scanner:     scanner,
	}
}

// Connect stores the mailbox credential for an authorization code and starts the initial scan
func (h *ConnectionsHandler) Connect() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "ConnectionsHandler.Connect")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var req dto.ConnectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tracing.TagUser(span, req.UserId)

		credential, err := h.credentials.Connect(ctx, req.UserId, req.Code)
		if err != nil {
			tracing.TraceErr(span, err)
			respondWithError(c, err)
			return
		}

		h.scanner.TriggerInitialScan(req.UserId)

		c.JSON(http.StatusCreated, ConnectionResponse{
			UserId:      credential.UserID,
			MailAddress: credential.MailAddress,
		})
	}
}

func (h *ConnectionsHandler) Disconnect() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "ConnectionsHandler.Disconnect")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		userId := c.Param("userId")
		if err := h.credentials.Disconnect(ctx, userId); err != nil {
			tracing.TraceErr(span, err)
			respondWithError(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}
