package middleware

import (
	"bytes"
	"io"

	"github.com/gin-gonic/gin"

	appErrors "github.com/vinceyvincey/google-calendar-sync/pkg/errors"
	"github.com/vinceyvincey/google-calendar-sync/pkg/response"
	"github.com/vinceyvincey/google-calendar-sync/pkg/signature"
)

// SignatureHeader carries the hex HMAC-SHA256 digest of the raw request body.
const SignatureHeader = "X-Webhook-Signature"

// WebhookSignature verifies the body signature before the handler runs. The
// raw body is consumed for verification and restored so handlers can still
// read it.
func WebhookSignature(verifier *signature.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		sig := c.GetHeader(SignatureHeader)
		if sig == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "No signature provided"))
			c.Abort()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if !verifier.Verify(sig, body) {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "Invalid signature"))
			c.Abort()
			return
		}

		c.Next()
	}
}
