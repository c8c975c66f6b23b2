package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/garyjia/billing-workflow/internal/billing"
	"github.com/garyjia/billing-workflow/internal/document"
	"github.com/garyjia/billing-workflow/internal/domain/workflow"
	"github.com/garyjia/billing-workflow/internal/email"
)

// statusFor maps an error of the workflow to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, port.ErrValidation),
		errors.Is(err, billing.ErrUnknownCompany),
		errors.Is(err, billing.ErrItemIndex),
		errors.Is(err, email.ErrNoDocument):
		return http.StatusBadRequest
	case errors.Is(err, port.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, port.ErrNotFound),
		errors.Is(err, billing.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, port.ErrDuplicateNumber),
		errors.Is(err, billing.ErrSaveInProgress),
		errors.Is(err, billing.ErrNotSaved),
		errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, port.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, port.ErrNetwork):
		return http.StatusBadGateway
	case errors.Is(err, document.ErrNoStorage),
		errors.Is(err, document.ErrNoRasterizer):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with the mapped status. draft, when given, is the
// draft as the user left it so the client can keep editing.
func (h *Handlers) writeError(c *gin.Context, err error, draft interface{}) {
	status := statusFor(err)

	resp := Response{Success: false, Error: err.Error(), Data: draft}
	var verr *port.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	} else {
		h.logger.Debug("Request rejected",
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}

	c.JSON(status, resp)
}
