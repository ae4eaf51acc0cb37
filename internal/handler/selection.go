package handler

import (
	"net/http"

	"propertychat/internal/model"
	"propertychat/internal/service"

	"github.com/gin-gonic/gin"
)

// SelectionHandler handles the selection set, the saved set and the
// selection comparison
type SelectionHandler struct {
	sessions *service.SessionManager
}

// NewSelectionHandler creates a new selection handler
func NewSelectionHandler(sessions *service.SessionManager) *SelectionHandler {
	return &SelectionHandler{
		sessions: sessions,
	}
}

// Toggle handles POST /api/v1/sessions/:id/selection/:propertyId
func (h *SelectionHandler) Toggle(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}

	property, found := s.LookupProperty(c.Param("propertyId"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	selected := s.Selection.ToggleSelected(property)
	c.JSON(http.StatusOK, gin.H{
		"property_id": property.ID,
		"selected":    selected,
		"selection":   s.Selection.Selected(),
	})
}

// CompareSelection handles GET /api/v1/sessions/:id/selection/compare
func (h *SelectionHandler) CompareSelection(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}

	comparison, ok := s.CompareSelection()
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "Select at least two properties to compare"})
		return
	}
	c.JSON(http.StatusOK, comparison)
}

// Saved handles GET /api/v1/sessions/:id/saved
func (h *SelectionHandler) Saved(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	h.respondSaved(c, s)
}

// Refresh handles PUT /api/v1/sessions/:id/saved - reload the saved list
func (h *SelectionHandler) Refresh(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}

	if err := s.Selection.Refresh(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	h.respondSaved(c, s)
}

// Save handles POST /api/v1/sessions/:id/saved/:propertyId
func (h *SelectionHandler) Save(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}

	if err := s.Selection.Save(c.Request.Context(), h.property(s, c.Param("propertyId"))); err != nil {
		respondError(c, err)
		return
	}
	h.respondSaved(c, s)
}

// Unsave handles DELETE /api/v1/sessions/:id/saved/:propertyId
func (h *SelectionHandler) Unsave(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}

	if err := s.Selection.Unsave(c.Request.Context(), h.property(s, c.Param("propertyId"))); err != nil {
		respondError(c, err)
		return
	}
	h.respondSaved(c, s)
}

// property resolves a property id; saving only needs the id, so an unknown
// one is still accepted
func (h *SelectionHandler) property(s *service.Session, id string) model.Property {
	if p, ok := s.LookupProperty(id); ok {
		return p
	}
	return model.Property{ID: id}
}

func (h *SelectionHandler) respondSaved(c *gin.Context, s *service.Session) {
	c.JSON(http.StatusOK, gin.H{
		"properties": s.Selection.Saved(),
		"saved_ids":  s.Selection.SavedIDs(),
		"loaded":     s.Selection.Loaded(),
	})
}
