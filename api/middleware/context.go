package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/customeros/invoicestack/internal/utils"
)

const UserIdHeader = "X-USER-ID"

// CustomContextMiddleware adds custom context to all requests. The user id comes from the
// path when present and from the X-USER-ID header otherwise.
func CustomContextMiddleware(appSource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.Param("userId")
		if userId == "" {
			userId = c.GetHeader(UserIdHeader)
		}
		c.Set("UserId", userId)

		ctx := utils.WithCustomContextFromGinRequest(c, appSource)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
