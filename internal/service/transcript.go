package service

import (
	"errors"
	"sync"
	"time"

	"propertychat/internal/model"
)

var ErrInvalidTurn = errors.New("turn must carry text or a result set")

// Transcript is the append-only, ordered record of conversation turns.
// Append is the only mutator; readers always get copies.
type Transcript struct {
	mu     sync.RWMutex
	turns  []model.Turn
	nextID int64
	now    func() time.Time

	// pending holds recorded turns not yet handed to subscribers, in append order
	pending []model.Turn
	// publishMu keeps subscriber delivery in append order
	publishMu   sync.Mutex
	subMu       sync.Mutex
	subscribers map[int]func(model.Turn)
	nextSub     int
}

// NewTranscript creates a transcript seeded with an assistant greeting.
// An empty greeting leaves the transcript empty.
func NewTranscript(greeting string) *Transcript {
	t := &Transcript{
		now:         time.Now,
		subscribers: make(map[int]func(model.Turn)),
	}
	if greeting != "" {
		t.turns = append(t.turns, model.Turn{
			ID:        1,
			Author:    model.AuthorAssistant,
			Text:      greeting,
			Source:    model.SourceFreeText,
			CreatedAt: t.now(),
		})
		t.nextID = 1
	}
	return t
}

// Append records a turn and delivers it to subscribers before returning.
func (t *Transcript) Append(turn model.Turn) (model.Turn, error) {
	stored, err := t.Record(turn)
	if err != nil {
		return model.Turn{}, err
	}
	t.Deliver()
	return stored, nil
}

// Record appends a turn, assigning its id and timestamp, without calling
// subscribers. The stored turn owns its own copy of the results and query.
// Callers holding their own locks record under them and call Deliver once
// those locks are released.
func (t *Transcript) Record(turn model.Turn) (model.Turn, error) {
	if turn.Text == "" && !turn.HasResults() {
		return model.Turn{}, ErrInvalidTurn
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	turn.ID = t.nextID
	turn.CreatedAt = t.now()
	turn = cloneTurn(turn)
	t.turns = append(t.turns, turn)
	t.pending = append(t.pending, turn)
	return cloneTurn(turn), nil
}

// Deliver hands every recorded but undelivered turn to the subscribers, in
// append order. It blocks while another goroutine is delivering.
func (t *Transcript) Deliver() {
	t.publishMu.Lock()
	defer t.publishMu.Unlock()

	for {
		t.mu.Lock()
		batch := t.pending
		t.pending = nil
		t.mu.Unlock()
		if len(batch) == 0 {
			return
		}

		fns := t.snapshotSubscribers()
		for _, turn := range batch {
			for _, fn := range fns {
				fn(cloneTurn(turn))
			}
		}
	}
}

// Turns returns a copy of every turn in append order.
func (t *Transcript) Turns() []model.Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]model.Turn, len(t.turns))
	for i, turn := range t.turns {
		out[i] = cloneTurn(turn)
	}
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

// Subscribe registers fn to be called with each appended turn. Calls happen
// on the appending goroutine, in append order. The returned func unsubscribes.
func (t *Transcript) Subscribe(fn func(model.Turn)) func() {
	t.subMu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subscribers[id] = fn
	t.subMu.Unlock()

	return func() {
		t.subMu.Lock()
		delete(t.subscribers, id)
		t.subMu.Unlock()
	}
}

func (t *Transcript) snapshotSubscribers() []func(model.Turn) {
	t.subMu.Lock()
	defer t.subMu.Unlock()

	fns := make([]func(model.Turn), 0, len(t.subscribers))
	for i := 0; i < t.nextSub; i++ {
		if fn, ok := t.subscribers[i]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

func cloneTurn(turn model.Turn) model.Turn {
	if turn.Results != nil {
		turn.Results = append([]model.Property{}, turn.Results...)
	}
	if turn.QueryUsed != nil {
		q := turn.QueryUsed.Clone()
		turn.QueryUsed = &q
	}
	return turn
}
