package service

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"propertychat/internal/model"

	"go.uber.org/zap"
)

var errNetwork = errors.New("connection refused")

type fakeParser struct {
	mu     sync.Mutex
	calls  []string
	result *model.ParseResult
	err    error
	gate   chan struct{} // when set, Parse blocks until it is closed
}

func (f *fakeParser) Parse(ctx context.Context, text string) (*model.ParseResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return f.result, f.err
}

func (f *fakeParser) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeIndex struct {
	mu      sync.Mutex
	queries []model.CanonicalQuery
	results []model.Property
	err     error
	gate    chan struct{}
}

func (f *fakeIndex) Search(ctx context.Context, q model.CanonicalQuery) (*model.SearchResponse, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.SearchResponse{Total: len(f.results), Page: 1, PageSize: 20, Results: f.results}, nil
}

func (f *fakeIndex) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakeSaved struct {
	mu        sync.Mutex
	items     map[string]model.Property
	catalog   map[string]model.Property
	saveErr   error
	unsaveErr error
	listErr   error
	listCalls int
}

func newFakeSaved(catalog ...model.Property) *fakeSaved {
	f := &fakeSaved{items: map[string]model.Property{}, catalog: map[string]model.Property{}}
	for _, p := range catalog {
		f.catalog[p.ID] = p
	}
	return f
}

func (f *fakeSaved) ListSaved(ctx context.Context, userID string) ([]model.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Property, 0, len(f.items))
	for _, p := range f.items {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeSaved) Save(ctx context.Context, userID, propertyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	p, ok := f.catalog[propertyID]
	if !ok {
		p = model.Property{ID: propertyID}
	}
	f.items[propertyID] = p
	return nil
}

func (f *fakeSaved) Unsave(ctx context.Context, userID, propertyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unsaveErr != nil {
		return f.unsaveErr
	}
	delete(f.items, propertyID)
	return nil
}

type fakePredictor struct {
	resp *model.ComparePredictionResponse
	err  error
	gate chan struct{}
}

func (f *fakePredictor) Predict(ctx context.Context, a, b string) (*model.ComparePredictionResponse, error) {
	if f.gate != nil {
		<-f.gate
	}
	return f.resp, f.err
}

func rejected(status int) error {
	return &StatusError{StatusCode: status, URL: "http://backend/test", Body: http.StatusText(status)}
}

func newTestCoordinator(parser IntentParser, index SearchIndex) (*RequestCoordinator, *Transcript, *NotificationFeed) {
	transcript := NewTranscript("")
	feed := NewNotificationFeed(0)
	return NewRequestCoordinator(parser, index, transcript, feed, zap.NewNop()), transcript, feed
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
