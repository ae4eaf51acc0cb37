package handler

import (
	"net/http"

	"propertychat/internal/model"
	"propertychat/internal/service"

	"github.com/gin-gonic/gin"
)

// CompareHandler handles address comparison via the prediction service
type CompareHandler struct {
	sessions *service.SessionManager
}

// NewCompareHandler creates a new compare handler
func NewCompareHandler(sessions *service.SessionManager) *CompareHandler {
	return &CompareHandler{
		sessions: sessions,
	}
}

// Compare handles POST /api/v1/sessions/:id/compare
func (h *CompareHandler) Compare(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}

	var req model.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	properties, err := s.Compare.Compare(c.Request.Context(), req.AddressA, req.AddressB)
	if err != nil {
		if service.CodeOf(err) == service.ErrorEmptySubmission {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Both addresses are required"})
			return
		}
		// only a failed prediction sets a user-facing message
		message := s.Compare.Message()
		if message == "" {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": message, "state": s.Compare.State()})
		return
	}

	c.JSON(http.StatusOK, model.ComparePredictionResponse{Properties: properties})
}
