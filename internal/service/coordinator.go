package service

import (
	"context"
	"strings"
	"sync"

	"propertychat/internal/model"

	"go.uber.org/zap"
)

// RequestState is the submission lifecycle of a RequestCoordinator
type RequestState string

const (
	StateIdle             RequestState = "idle"
	StateSubmittingParse  RequestState = "submitting-parse"
	StateSubmittingSearch RequestState = "submitting-search"
)

// Outcome reports the turns a submission appended
type Outcome struct {
	Generation uint64                `json:"generation"`
	Turns      []model.Turn          `json:"turns"`
	Query      *model.CanonicalQuery `json:"query,omitempty"`
}

// RequestCoordinator drives both submission paths. At most one submission is
// in flight; a second one is rejected with ErrorBusy. Every submission carries
// a generation number and completions from an older generation are dropped.
type RequestCoordinator struct {
	mu         sync.Mutex
	state      RequestState
	generation uint64
	filters    model.FilterState
	results    []model.Property
	resultsQ   *model.CanonicalQuery

	parser     IntentParser
	index      SearchIndex
	transcript *Transcript
	notifier   Notifier
	logger     *zap.Logger
}

// NewRequestCoordinator creates a coordinator appending to transcript
func NewRequestCoordinator(parser IntentParser, index SearchIndex, transcript *Transcript, notifier Notifier, logger *zap.Logger) *RequestCoordinator {
	return &RequestCoordinator{
		state:      StateIdle,
		parser:     parser,
		index:      index,
		transcript: transcript,
		notifier:   notifier,
		logger:     logger,
	}
}

func (c *RequestCoordinator) State() RequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetFilters replaces the filter form. Edits never trigger a search.
func (c *RequestCoordinator) SetFilters(f model.FilterState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = f
}

func (c *RequestCoordinator) Filters() model.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// Results returns the most recent committed result set and the query that
// produced it. The query is nil once cleared or before any search.
func (c *RequestCoordinator) Results() ([]model.Property, *model.CanonicalQuery) {
	c.mu.Lock()
	defer c.mu.Unlock()

	results := append([]model.Property{}, c.results...)
	if c.resultsQ == nil {
		return results, nil
	}
	q := c.resultsQ.Clone()
	return results, &q
}

// ClearResults hides the current result set. The transcript is untouched.
func (c *RequestCoordinator) ClearResults() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = nil
	c.resultsQ = nil
}

// Abandon discards any in-flight submission. Its completion, when it
// arrives, appends nothing.
func (c *RequestCoordinator) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.state = StateIdle
}

// SubmitText runs the free-text path: record the user turn, ask the parser,
// record its reply and, when it produced filters, search with the filters
// merged over the current form.
func (c *RequestCoordinator) SubmitText(ctx context.Context, text string) (Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{}, newError(ErrorEmptySubmission, "blank_text", nil)
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return Outcome{}, newError(ErrorBusy, "submission_in_flight", nil)
	}
	c.generation++
	gen := c.generation
	c.state = StateSubmittingParse
	// the merge base is the form as it was at submission time
	base := c.filters.ToCanonicalQuery()
	out := Outcome{Generation: gen}
	c.appendLocked(&out, model.Turn{Author: model.AuthorUser, Text: text, Source: model.SourceFreeText})
	c.mu.Unlock()
	c.deliver()

	c.logger.Info("Submitting free text", zap.Uint64("generation", gen), zap.Int("length", len(text)))

	parsed, err := c.parser.Parse(ctx, text)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return out, c.superseded(gen)
	}
	if err != nil {
		c.state = StateIdle
		c.mu.Unlock()
		c.logger.Warn("NLP parse failed", zap.Uint64("generation", gen), zap.Error(err))
		c.notify(NotificationError, "Something went wrong", "We couldn't understand that message. Please try again.")
		return out, collaboratorError("nlp_parse_error", err)
	}

	if parsed.HasText() {
		c.appendLocked(&out, model.Turn{Author: model.AuthorAssistant, Text: parsed.Text, Source: model.SourceFreeText})
	}
	if !parsed.HasFilters() {
		c.state = StateIdle
		c.mu.Unlock()
		c.deliver()
		return out, nil
	}

	query := MergeQuery(base, *parsed.Filters)
	c.state = StateSubmittingSearch
	c.mu.Unlock()
	c.deliver()

	return c.search(ctx, gen, query, model.SourceFreeText, out)
}

// SubmitFilters runs the structured path: search with exactly the query
// derived from the current filter form.
func (c *RequestCoordinator) SubmitFilters(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return Outcome{}, newError(ErrorBusy, "submission_in_flight", nil)
	}
	query := c.filters.ToCanonicalQuery()
	if query.IsEmpty() {
		c.mu.Unlock()
		return Outcome{}, newError(ErrorEmptySubmission, "empty_filters", nil)
	}
	c.generation++
	gen := c.generation
	c.state = StateSubmittingSearch
	out := Outcome{Generation: gen}
	c.appendLocked(&out, model.Turn{
		Author: model.AuthorUser,
		Text:   describeFilterSubmission(query),
		Source: model.SourceStructuredFilter,
	})
	c.mu.Unlock()
	c.deliver()

	return c.search(ctx, gen, query, model.SourceStructuredFilter, out)
}

func (c *RequestCoordinator) search(ctx context.Context, gen uint64, query model.CanonicalQuery, source model.Source, out Outcome) (Outcome, error) {
	c.logger.Info("Searching properties",
		zap.Uint64("generation", gen),
		zap.String("source", string(source)),
		zap.String("query", query.Key()),
	)

	resp, err := c.index.Search(ctx, query)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return out, c.superseded(gen)
	}
	c.state = StateIdle
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("Search failed", zap.Uint64("generation", gen), zap.Error(err))
		c.notify(NotificationError, "Search failed", "Failed to search properties. Please try again.")
		return out, collaboratorError("search_error", err)
	}

	results := []model.Property{}
	if resp != nil && resp.Results != nil {
		results = resp.Results
	}
	q := query.Clone()
	c.appendLocked(&out, model.Turn{
		Author:    model.AuthorAssistant,
		Text:      SummarizeResults(len(results)),
		Source:    source,
		Results:   results,
		QueryUsed: &q,
	})
	c.results = append([]model.Property{}, results...)
	c.resultsQ = &q
	out.Query = &q
	c.mu.Unlock()
	c.deliver()

	c.logger.Info("Search completed", zap.Uint64("generation", gen), zap.Int("results", len(results)))
	return out, nil
}

// appendLocked records while c.mu is held so that a concurrent Abandon
// cannot interleave between the generation check and the append. Subscribers
// are only called from deliver, after c.mu is released.
func (c *RequestCoordinator) appendLocked(out *Outcome, turn model.Turn) {
	stored, err := c.transcript.Record(turn)
	if err != nil {
		c.logger.Error("Dropping invalid turn", zap.Error(err))
		return
	}
	out.Turns = append(out.Turns, stored)
}

func (c *RequestCoordinator) deliver() {
	c.transcript.Deliver()
}

func (c *RequestCoordinator) superseded(gen uint64) error {
	c.logger.Info("Discarding stale completion", zap.Uint64("generation", gen))
	return newError(ErrorSuperseded, "stale_generation", nil)
}

func (c *RequestCoordinator) notify(level NotificationLevel, title, description string) {
	if c.notifier != nil {
		c.notifier.Notify(level, title, description)
	}
}
