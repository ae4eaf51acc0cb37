package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"propertychat/internal/model"
	"propertychat/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SearchHandler handles both submission paths and the results view
type SearchHandler struct {
	sessions *service.SessionManager
	history  SearchHistory
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(sessions *service.SessionManager, history SearchHistory) *SearchHandler {
	return &SearchHandler{
		sessions: sessions,
		history:  history,
	}
}

type messageRequest struct {
	Text string `json:"text"`
}

type outcomeResponse struct {
	Generation uint64                `json:"generation"`
	Turns      []service.TurnView    `json:"turns"`
	Query      *model.CanonicalQuery `json:"query,omitempty"`
}

func newOutcomeResponse(out service.Outcome) outcomeResponse {
	return outcomeResponse{
		Generation: out.Generation,
		Turns:      service.PresentTurns(out.Turns),
		Query:      out.Query,
	}
}

// SendMessage handles POST /api/v1/sessions/:id/messages
func (h *SearchHandler) SendMessage(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	out, err := s.Requests.SubmitText(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	h.recordSearch(s, model.SourceFreeText, out)

	c.JSON(http.StatusOK, newOutcomeResponse(out))
}

// SendMessageStream handles POST /api/v1/sessions/:id/messages/stream - SSE
// stream of every turn the submission appends
func (h *SearchHandler) SendMessageStream(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	var mu sync.Mutex
	emit := func(event string, data any) {
		mu.Lock()
		defer mu.Unlock()
		sendSSE(c, event, data)
		flusher.Flush()
	}

	emit("start", map[string]any{"state": s.Requests.State()})

	unsubscribe := s.Transcript.Subscribe(func(turn model.Turn) {
		emit("turn", service.PresentTurns([]model.Turn{turn})[0])
	})
	out, err := s.Requests.SubmitText(c.Request.Context(), req.Text)
	unsubscribe()

	if err != nil {
		_, body := errorResponse(c, err)
		emit("error", body)
		return
	}
	h.recordSearch(s, model.SourceFreeText, out)

	emit("done", map[string]any{"generation": out.Generation, "query": out.Query})
}

// Search handles POST /api/v1/sessions/:id/search - structured filter search
// using the session's current filter form
func (h *SearchHandler) Search(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}

	// An optional body replaces the form before submitting
	var filters model.FilterState
	present, err := bindOptionalJSON(c, &filters)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if present {
		s.Requests.SetFilters(filters)
	}

	out, err := s.Requests.SubmitFilters(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	h.recordSearch(s, model.SourceStructuredFilter, out)

	c.JSON(http.StatusOK, newOutcomeResponse(out))
}

// Results handles GET /api/v1/sessions/:id/results
func (h *SearchHandler) Results(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}

	results, query := s.Requests.Results()
	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"query":   query,
		"total":   len(results),
	})
}

// ClearResults handles DELETE /api/v1/sessions/:id/results
func (h *SearchHandler) ClearResults(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	s.Requests.ClearResults()
	c.Status(http.StatusNoContent)
}

// recordSearch logs a committed search (non-blocking)
func (h *SearchHandler) recordSearch(s *service.Session, source model.Source, out service.Outcome) {
	if h.history == nil || out.Query == nil {
		return
	}

	entry := model.SearchLogEntry{
		UserID:    s.UserID,
		SessionID: s.ID,
		Source:    source,
		Query:     out.Query.Key(),
		CreatedAt: time.Now().UTC(),
	}
	for _, turn := range out.Turns {
		if turn.HasResults() {
			entry.ResultCount = len(turn.Results)
		}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.history.LogSearch(ctx, entry); err != nil {
			zap.L().Warn("Failed to log search", zap.String("session_id", entry.SessionID), zap.Error(err))
		}
	}()
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
	} else {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
	}
}
