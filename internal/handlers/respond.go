package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/complyline/compliance-backend/internal/modules/reconcile"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondSummary maps a pass summary onto HTTP: success is 200,
// partial (some records failed) is 207, error is 500.
func RespondSummary(c *gin.Context, sum *reconcile.Summary) {
	status := http.StatusOK
	switch sum.Status {
	case reconcile.StatusPartial:
		status = http.StatusMultiStatus
	case reconcile.StatusError:
		status = http.StatusInternalServerError
	}
	c.JSON(status, sum)
}
