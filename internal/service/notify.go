package service

import (
	"sync"
	"time"
)

type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

// Notification is a transient message for the user, outside the transcript.
type Notification struct {
	ID          int64             `json:"id"`
	Level       NotificationLevel `json:"level"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Notifier receives user-facing notifications.
type Notifier interface {
	Notify(level NotificationLevel, title, description string)
}

// NotificationFeed is a bounded in-memory queue of notifications that the
// client drains by polling.
type NotificationFeed struct {
	mu     sync.Mutex
	items  []Notification
	nextID int64
	limit  int
	now    func() time.Time
}

const defaultNotificationLimit = 50

func NewNotificationFeed(limit int) *NotificationFeed {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	return &NotificationFeed{limit: limit, now: time.Now}
}

func (f *NotificationFeed) Notify(level NotificationLevel, title, description string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	f.items = append(f.items, Notification{
		ID:          f.nextID,
		Level:       level,
		Title:       title,
		Description: description,
		CreatedAt:   f.now(),
	})
	// oldest first out
	if len(f.items) > f.limit {
		f.items = append([]Notification(nil), f.items[len(f.items)-f.limit:]...)
	}
}

// Drain returns all pending notifications and empties the feed.
func (f *NotificationFeed) Drain() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := f.items
	f.items = nil
	if items == nil {
		return []Notification{}
	}
	return items
}

func (f *NotificationFeed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
