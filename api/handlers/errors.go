package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
)

// StatusForError maps the error taxonomy onto HTTP statuses
func StatusForError(err error) int {
	switch {
	case errors.Is(err, invoicestack_errors.ErrNotConnected):
		return http.StatusNotFound
	case errors.Is(err, invoicestack_errors.ErrRefreshFailed):
		return http.StatusBadGateway
	case errors.Is(err, invoicestack_errors.ErrUserIdMissing),
		errors.Is(err, invoicestack_errors.ErrInvalidScanMode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondWithError(c *gin.Context, err error) {
	c.JSON(StatusForError(err), gin.H{"error": err.Error()})
}
