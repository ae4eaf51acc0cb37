package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"propertychat/internal/model"
	"propertychat/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// SearchHistory persists committed searches per user
type SearchHistory interface {
	LogSearch(ctx context.Context, entry model.SearchLogEntry) error
	RecentSearches(ctx context.Context, userID string, limit int) ([]model.SearchLogEntry, error)
}

// SessionHandler handles session lifecycle and read-only views
type SessionHandler struct {
	sessions *service.SessionManager
	identity *service.UserIdentity
	history  SearchHistory
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *service.SessionManager, identity *service.UserIdentity, history SearchHistory) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		identity: identity,
		history:  history,
	}
}

type createSessionRequest struct {
	UserID    string `json:"user_id"`
	ProfileID string `json:"profile_id"`
}

type compareView struct {
	State   service.CompareState      `json:"state"`
	Results []model.PredictedProperty `json:"results"`
	Message string                    `json:"message,omitempty"`
}

type sessionView struct {
	ID         string               `json:"id"`
	UserID     string               `json:"user_id"`
	State      service.RequestState `json:"state"`
	Filters    model.FilterState    `json:"filters"`
	Transcript []service.TurnView   `json:"transcript"`
	Selected   []model.Property     `json:"selected"`
	SavedIDs   []string             `json:"saved_ids"`
	Compare    compareView          `json:"compare"`
}

func newSessionView(s *service.Session) sessionView {
	return sessionView{
		ID:         s.ID,
		UserID:     s.UserID,
		State:      s.Requests.State(),
		Filters:    s.Requests.Filters(),
		Transcript: service.PresentTurns(s.Transcript.Turns()),
		Selected:   s.Selection.Selected(),
		SavedIDs:   s.Selection.SavedIDs(),
		Compare: compareView{
			State:   s.Compare.State(),
			Results: s.Compare.Results(),
			Message: s.Compare.Message(),
		},
	}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if _, err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	userID := h.identity.Resolve(c.Request.Context(), req.UserID, req.ProfileID)
	s := h.sessions.Create(c.Request.Context(), userID)

	c.JSON(http.StatusCreated, newSessionView(s))
}

// Get handles GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newSessionView(s))
}

// Delete handles DELETE /api/v1/sessions/:id
func (h *SessionHandler) Delete(c *gin.Context) {
	if !h.sessions.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// SetFilters handles PUT /api/v1/sessions/:id/filters
func (h *SessionHandler) SetFilters(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}

	var filters model.FilterState
	if err := c.ShouldBindJSON(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	s.Requests.SetFilters(filters)

	c.JSON(http.StatusOK, gin.H{
		"filters": filters,
		"query":   filters.ToCanonicalQuery(),
	})
}

// Transcript handles GET /api/v1/sessions/:id/transcript
func (h *SessionHandler) Transcript(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"turns": service.PresentTurns(s.Transcript.Turns())})
}

// Notifications handles GET /api/v1/sessions/:id/notifications
func (h *SessionHandler) Notifications(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": s.Notifications.Drain()})
}

// History handles GET /api/v1/sessions/:id/history
func (h *SessionHandler) History(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	if h.history == nil {
		c.JSON(http.StatusOK, gin.H{"searches": []model.SearchLogEntry{}})
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := h.history.RecentSearches(c.Request.Context(), s.UserID, limit)
	if err != nil {
		zap.L().Warn("Failed to load search history", zap.String("user_id", s.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load search history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"searches": entries})
}

// lookupSession resolves :id or writes a 404
func lookupSession(c *gin.Context, sessions *service.SessionManager) (*service.Session, bool) {
	s, ok := sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	return s, true
}

// bindOptionalJSON decodes an optional JSON body into obj. It reports false
// when the request carried no body, including an empty chunked one.
func bindOptionalJSON(c *gin.Context, obj any) (bool, error) {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return false, nil
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
