package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/vinceyvincey/google-calendar-sync/pkg/errors"
	"github.com/vinceyvincey/google-calendar-sync/pkg/response"
)

// Recovery converts panics into a 500 carrying the common error envelope.
// gin's stock recovery replies with an empty body.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, _ interface{}) {
		response.Error(c, appErrors.ErrInternal)
		c.Abort()
	})
}
