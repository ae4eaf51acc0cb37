package service

import (
	"context"
	"sync/atomic"
	"time"

	"propertychat/internal/model"

	"go.uber.org/zap"
)

// Session is one client conversation and everything it owns.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time

	Transcript    *Transcript
	Requests      *RequestCoordinator
	Selection     *SelectionStore
	Compare       *CompareCoordinator
	Notifications *NotificationFeed

	lastSeen atomic.Int64
	logger   *zap.Logger
}

// NewSession wires a session's components against the given collaborators
func NewSession(id, userID, greeting string, collab Collaborators, logger *zap.Logger) *Session {
	logger = logger.With(zap.String("session_id", id))
	feed := NewNotificationFeed(0)
	transcript := NewTranscript(greeting)

	s := &Session{
		ID:            id,
		UserID:        userID,
		CreatedAt:     time.Now(),
		Transcript:    transcript,
		Requests:      NewRequestCoordinator(collab.Parser, collab.Index, transcript, feed, logger),
		Selection:     NewSelectionStore(userID, collab.Saved, feed, logger),
		Compare:       NewCompareCoordinator(collab.Predictor, logger),
		Notifications: feed,
		logger:        logger,
	}
	s.Touch(s.CreatedAt)
	return s
}

// Start loads the saved set. A failure is reported as a notification and
// leaves the saved set empty.
func (s *Session) Start(ctx context.Context) {
	if err := s.Selection.Refresh(ctx); err != nil {
		s.Notifications.Notify(NotificationError, "Error", "Couldn't load your saved properties.")
	}
}

// Close abandons anything in flight
func (s *Session) Close() {
	s.Requests.Abandon()
	s.Compare.Abandon()
	s.logger.Info("Session closed")
}

func (s *Session) Touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// LookupProperty finds a property the client has been shown, checking the
// current results, then the transcript newest first, then the saved list
// and the selection.
func (s *Session) LookupProperty(id string) (model.Property, bool) {
	results, _ := s.Requests.Results()
	if p, ok := findProperty(results, id); ok {
		return p, true
	}

	turns := s.Transcript.Turns()
	for i := len(turns) - 1; i >= 0; i-- {
		if p, ok := findProperty(turns[i].Results, id); ok {
			return p, true
		}
	}

	if p, ok := findProperty(s.Selection.Saved(), id); ok {
		return p, true
	}
	return findProperty(s.Selection.Selected(), id)
}

// CompareSelection builds the side-by-side table for the selected
// properties. It reports false with fewer than two selected.
func (s *Session) CompareSelection() (Comparison, bool) {
	return BuildComparison(s.Selection.Selected())
}

func findProperty(props []model.Property, id string) (model.Property, bool) {
	for _, p := range props {
		if p.ID == id {
			return p, true
		}
	}
	return model.Property{}, false
}
