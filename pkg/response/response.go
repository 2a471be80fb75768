package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/vinceyvincey/google-calendar-sync/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success sends a 200 with a human-readable status message.
func Success(c *gin.Context, message string) {
	JSON(c, http.StatusOK, message, nil)
}

// JSON sends a success response with an optional message and payload.
func JSON(c *gin.Context, status int, message string, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, Envelope{Status: "success", Message: message, Data: data})
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Envelope{Status: "error", Message: appErr.Message})
}
