package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"propertychat/internal/model"

	"go.uber.org/zap"
)

// SelectionStore holds the ephemeral selection set and the saved set for a
// single user. The saved set only changes when a list read from the saved
// store succeeds; a failed write or read leaves it untouched.
type SelectionStore struct {
	userID   string
	saved    SavedStore
	notifier Notifier
	logger   *zap.Logger

	mu            sync.RWMutex
	selected      map[string]model.Property
	selectedOrder []string
	savedList     []model.Property
	savedIDs      map[string]struct{}
	loaded        bool
	issued        uint64 // last refresh generation handed out
	committed     uint64 // generation of the list currently held

	listenerMu sync.Mutex
	listeners  map[int]func()
	nextLis    int
}

func NewSelectionStore(userID string, saved SavedStore, notifier Notifier, logger *zap.Logger) *SelectionStore {
	return &SelectionStore{
		userID:    userID,
		saved:     saved,
		notifier:  notifier,
		logger:    logger,
		selected:  make(map[string]model.Property),
		savedIDs:  make(map[string]struct{}),
		listeners: make(map[int]func()),
	}
}

func (s *SelectionStore) UserID() string {
	return s.userID
}

// ToggleSelected flips membership of p and reports whether it is now selected.
func (s *SelectionStore) ToggleSelected(p model.Property) bool {
	s.mu.Lock()
	_, ok := s.selected[p.ID]
	if ok {
		delete(s.selected, p.ID)
		for i, id := range s.selectedOrder {
			if id == p.ID {
				s.selectedOrder = append(s.selectedOrder[:i:i], s.selectedOrder[i+1:]...)
				break
			}
		}
	} else {
		s.selected[p.ID] = p
		s.selectedOrder = append(s.selectedOrder, p.ID)
	}
	s.mu.Unlock()

	s.changed()
	return !ok
}

func (s *SelectionStore) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selected[id]
	return ok
}

// Selected returns the selected properties in selection order.
func (s *SelectionStore) Selected() []model.Property {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Property, 0, len(s.selectedOrder))
	for _, id := range s.selectedOrder {
		out = append(out, s.selected[id])
	}
	return out
}

func (s *SelectionStore) ClearSelection() {
	s.mu.Lock()
	s.selected = make(map[string]model.Property)
	s.selectedOrder = nil
	s.mu.Unlock()

	s.changed()
}

func (s *SelectionStore) IsSaved(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.savedIDs[id]
	return ok
}

// SavedIDs returns the confirmed saved ids, sorted.
func (s *SelectionStore) SavedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.savedIDs))
	for id := range s.savedIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Saved returns the saved list as last read from the saved store.
func (s *SelectionStore) Saved() []model.Property {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Property{}, s.savedList...)
}

// Loaded reports whether any refresh has committed yet.
func (s *SelectionStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Save asks the saved store to save p, then re-reads the saved list. The
// saved set reflects the write only once that re-read succeeds.
func (s *SelectionStore) Save(ctx context.Context, p model.Property) error {
	if err := s.saved.Save(ctx, s.userID, p.ID); err != nil {
		s.logger.Warn("Save failed", zap.String("property_id", p.ID), zap.Error(err))
		s.notify(NotificationError, "Error", "Failed to save property. Please try again.")
		return collaboratorError("save_error", err)
	}

	if err := s.Refresh(ctx); err != nil {
		s.notify(NotificationError, "Error", "Property saved, but the saved list could not be reloaded.")
		return err
	}

	s.notify(NotificationSuccess, "Property saved", fmt.Sprintf("%s has been added to your saved list.", displayName(p)))
	return nil
}

// Unsave is the inverse of Save with the same confirm-then-refresh rule.
func (s *SelectionStore) Unsave(ctx context.Context, p model.Property) error {
	if err := s.saved.Unsave(ctx, s.userID, p.ID); err != nil {
		s.logger.Warn("Unsave failed", zap.String("property_id", p.ID), zap.Error(err))
		s.notify(NotificationError, "Error", "Failed to remove property. Please try again.")
		return collaboratorError("unsave_error", err)
	}

	if err := s.Refresh(ctx); err != nil {
		s.notify(NotificationError, "Error", "Property removed, but the saved list could not be reloaded.")
		return err
	}

	s.notify(NotificationSuccess, "Property removed", fmt.Sprintf("%s has been removed from your saved list.", displayName(p)))
	return nil
}

// Refresh replaces the saved set with the store's current list. When several
// refreshes overlap, a read older than the one already committed is dropped.
func (s *SelectionStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.issued++
	gen := s.issued
	s.mu.Unlock()

	list, err := s.saved.ListSaved(ctx, s.userID)
	if err != nil {
		s.logger.Warn("Saved list refresh failed", zap.String("user_id", s.userID), zap.Error(err))
		return collaboratorError("saved_list_error", err)
	}

	s.mu.Lock()
	if gen < s.committed {
		s.mu.Unlock()
		s.logger.Debug("Dropping stale saved list", zap.Uint64("generation", gen))
		return nil
	}
	s.committed = gen
	s.loaded = true
	s.savedList = append([]model.Property{}, list...)
	s.savedIDs = make(map[string]struct{}, len(list))
	for _, p := range list {
		s.savedIDs[p.ID] = struct{}{}
	}
	s.mu.Unlock()

	s.changed()
	return nil
}

// Subscribe registers fn to be called after every selection or saved set
// change. The returned func unsubscribes.
func (s *SelectionStore) Subscribe(fn func()) func() {
	s.listenerMu.Lock()
	id := s.nextLis
	s.nextLis++
	s.listeners[id] = fn
	s.listenerMu.Unlock()

	return func() {
		s.listenerMu.Lock()
		delete(s.listeners, id)
		s.listenerMu.Unlock()
	}
}

func (s *SelectionStore) changed() {
	s.listenerMu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenerMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (s *SelectionStore) notify(level NotificationLevel, title, description string) {
	if s.notifier != nil {
		s.notifier.Notify(level, title, description)
	}
}

func displayName(p model.Property) string {
	if p.Title != "" {
		return p.Title
	}
	return "Property " + p.ID
}
