package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/mdb-curator/internal/platform/apierr"
	"github.com/yungbote/mdb-curator/internal/platform/ctxutil"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	respond(c, status, code, err, nil)
}

// RespondDomainError picks the status and code for err from the curation error taxonomy.
func RespondDomainError(c *gin.Context, err error) {
	ae := apierr.FromDomain(err)
	respond(c, ae.Status, ae.Code, ae.Err, ae.Details)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func respond(c *gin.Context, status int, code string, err error, details any) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	body := APIError{
		Message:   msg,
		Code:      code,
		Details:   details,
		RequestID: ctxutil.RequestID(c.Request.Context()),
	}
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: body})
}
