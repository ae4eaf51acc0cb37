package handler

import (
	"net/http"

	"propertychat/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps a service error to an HTTP status and a generic message.
// Collaborator details are logged, never returned to the client.
func respondError(c *gin.Context, err error) {
	status, body := errorResponse(c, err)
	c.JSON(status, body)
}

// errorResponse builds the status and client-safe body for err. The stream
// endpoint sends the same body as its error event.
func errorResponse(c *gin.Context, err error) (int, gin.H) {
	code := service.CodeOf(err)

	status := http.StatusInternalServerError
	message := "Something went wrong. Please try again."
	switch code {
	case service.ErrorEmptySubmission:
		status, message = http.StatusBadRequest, "Nothing to submit"
	case service.ErrorBusy:
		status, message = http.StatusConflict, "A request is already in progress"
	case service.ErrorSuperseded:
		status, message = http.StatusConflict, "Request was superseded"
	case service.ErrorNotFound:
		status, message = http.StatusNotFound, "Not found"
	case service.ErrorCollaboratorUnreachable, service.ErrorCollaboratorRejected:
		status, message = http.StatusBadGateway, "Upstream service unavailable. Please try again."
	}

	if status >= http.StatusInternalServerError {
		zap.L().Warn("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("code", string(code)),
			zap.Error(err),
		)
	}

	body := gin.H{"error": message}
	if code != "" {
		body["code"] = code
	}
	return status, body
}
