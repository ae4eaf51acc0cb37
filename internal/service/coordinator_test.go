package service

import (
	"context"
	"testing"
	"time"

	"propertychat/internal/model"

	"github.com/stretchr/testify/require"
)

func assistantTurns(turns []model.Turn) []model.Turn {
	var out []model.Turn
	for _, turn := range turns {
		if turn.Author == model.AuthorAssistant {
			out = append(out, turn)
		}
	}
	return out
}

func TestSubmitText_ParseOutcomes(t *testing.T) {
	austin := &model.CanonicalQuery{Location: []string{"Austin"}}
	results := []model.Property{{ID: "p1"}, {ID: "p2"}}

	tests := []struct {
		name         string
		parsed       *model.ParseResult
		wantTexts    []string
		wantSearches int
	}{
		{
			name:         "text only",
			parsed:       &model.ParseResult{Text: "What is your budget?"},
			wantTexts:    []string{"What is your budget?"},
			wantSearches: 0,
		},
		{
			name:         "filters only",
			parsed:       &model.ParseResult{Filters: austin},
			wantTexts:    []string{"Found 2 options."},
			wantSearches: 1,
		},
		{
			name:         "text and filters",
			parsed:       &model.ParseResult{Text: "Looking in Austin.", Filters: austin},
			wantTexts:    []string{"Looking in Austin.", "Found 2 options."},
			wantSearches: 1,
		},
		{
			name:         "neither",
			parsed:       &model.ParseResult{Filters: &model.CanonicalQuery{}},
			wantTexts:    nil,
			wantSearches: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &fakeParser{result: tt.parsed}
			index := &fakeIndex{results: results}
			c, transcript, _ := newTestCoordinator(parser, index)

			out, err := c.SubmitText(context.Background(), "homes in austin")
			require.NoError(t, err)
			require.Equal(t, StateIdle, c.State())
			require.Equal(t, tt.wantSearches, index.callCount())

			turns := transcript.Turns()
			require.Equal(t, model.AuthorUser, turns[0].Author)
			require.Equal(t, "homes in austin", turns[0].Text)
			require.Equal(t, turns, out.Turns)

			var texts []string
			for _, turn := range assistantTurns(turns) {
				require.Equal(t, model.SourceFreeText, turn.Source)
				texts = append(texts, turn.Text)
			}
			require.Equal(t, tt.wantTexts, texts)

			if tt.wantSearches > 0 {
				last := turns[len(turns)-1]
				require.True(t, last.HasResults())
				require.Len(t, last.Results, 2)
				require.Equal(t, []string{"Austin"}, last.QueryUsed.Location)
			}
		})
	}
}

func TestSubmitText_AustinScenario(t *testing.T) {
	parser := &fakeParser{result: &model.ParseResult{Filters: &model.CanonicalQuery{
		Location:    []string{"Austin"},
		MinBedrooms: intPtr(3),
		MaxPrice:    floatPtr(500000),
	}}}
	index := &fakeIndex{results: []model.Property{{ID: "a"}, {ID: "b"}}}
	c, transcript, _ := newTestCoordinator(parser, index)

	_, err := c.SubmitText(context.Background(), "3 bedroom homes in Austin under 500000")
	require.NoError(t, err)

	assistant := assistantTurns(transcript.Turns())
	require.Len(t, assistant, 1)
	require.Equal(t, "Found 2 options.", assistant[0].Text)
	require.Len(t, assistant[0].Results, 2)
	require.Equal(t, []string{"Austin"}, assistant[0].QueryUsed.Location)

	results, query := c.Results()
	require.Len(t, results, 2)
	require.Equal(t, 3, *query.MinBedrooms)
}

func TestSubmitText_MergesOverFilterForm(t *testing.T) {
	parser := &fakeParser{result: &model.ParseResult{
		Text:    "Sure.",
		Filters: &model.CanonicalQuery{Location: []string{"Austin"}},
	}}
	index := &fakeIndex{}
	c, transcript, _ := newTestCoordinator(parser, index)
	c.SetFilters(model.FilterState{Location: "Denver", MaxPrice: "400000", Amenities: "pool"})

	_, err := c.SubmitText(context.Background(), "actually austin")
	require.NoError(t, err)

	want := MergeQuery(c.Filters().ToCanonicalQuery(), model.CanonicalQuery{Location: []string{"Austin"}})
	require.Equal(t, []model.CanonicalQuery{want}, index.queries)

	assistant := assistantTurns(transcript.Turns())
	require.Len(t, assistant, 2)
	require.Equal(t, "Sure.", assistant[0].Text)
	require.Equal(t, "No matches, try adjusting filters.", assistant[1].Text)
	require.Equal(t, want, *assistant[1].QueryUsed)
	require.NotNil(t, assistant[1].Results)
}

func TestSubmitText_Blank(t *testing.T) {
	parser := &fakeParser{}
	c, transcript, _ := newTestCoordinator(parser, &fakeIndex{})

	_, err := c.SubmitText(context.Background(), "   ")
	require.Equal(t, ErrorEmptySubmission, CodeOf(err))
	require.Equal(t, 0, parser.callCount())
	require.Equal(t, 0, transcript.Len())
}

func TestSubmitText_ParseFailure(t *testing.T) {
	parser := &fakeParser{err: rejected(500)}
	index := &fakeIndex{}
	c, transcript, feed := newTestCoordinator(parser, index)

	_, err := c.SubmitText(context.Background(), "hello")
	require.Equal(t, ErrorCollaboratorRejected, CodeOf(err))
	require.Equal(t, StateIdle, c.State())
	require.Equal(t, 0, index.callCount())

	// only the user turn, no partial assistant turn
	require.Equal(t, 1, transcript.Len())
	notes := feed.Drain()
	require.Len(t, notes, 1)
	require.Equal(t, NotificationError, notes[0].Level)

	// the failure does not block the next submission
	parser.err = nil
	parser.result = &model.ParseResult{Text: "Hi again"}
	_, err = c.SubmitText(context.Background(), "hello")
	require.NoError(t, err)
}

func TestSubmitText_SearchFailure(t *testing.T) {
	parser := &fakeParser{result: &model.ParseResult{Text: "Searching.", Filters: &model.CanonicalQuery{Location: []string{"Austin"}}}}
	index := &fakeIndex{err: errNetwork}
	c, transcript, feed := newTestCoordinator(parser, index)

	_, err := c.SubmitText(context.Background(), "austin")
	require.Equal(t, ErrorCollaboratorUnreachable, CodeOf(err))
	require.ErrorIs(t, err, errNetwork)

	// the reply turn stays, the results turn never appears
	assistant := assistantTurns(transcript.Turns())
	require.Len(t, assistant, 1)
	require.Equal(t, "Searching.", assistant[0].Text)

	notes := feed.Drain()
	require.Len(t, notes, 1)
	require.Equal(t, "Search failed", notes[0].Title)
	require.Equal(t, StateIdle, c.State())
}

func TestSubmitFilters(t *testing.T) {
	index := &fakeIndex{results: []model.Property{{ID: "p1"}}}
	c, transcript, _ := newTestCoordinator(&fakeParser{}, index)
	c.SetFilters(model.FilterState{Location: " Austin ", MinPrice: "abc", MinBedrooms: "3"})

	out, err := c.SubmitFilters(context.Background())
	require.NoError(t, err)

	want := model.CanonicalQuery{Location: []string{"Austin"}, MinBedrooms: intPtr(3)}
	require.Equal(t, []model.CanonicalQuery{want}, index.queries)
	require.Equal(t, want, *out.Query)

	turns := transcript.Turns()
	require.Len(t, turns, 2)
	require.Equal(t, model.AuthorUser, turns[0].Author)
	require.Equal(t, model.SourceStructuredFilter, turns[0].Source)
	require.Equal(t, model.SourceStructuredFilter, turns[1].Source)
	require.Equal(t, "Found 1 option.", turns[1].Text)
	require.Equal(t, GroupFilterResults, GroupOf(turns[1]))
}

func TestSubmitFilters_EmptyRejected(t *testing.T) {
	index := &fakeIndex{}
	c, transcript, _ := newTestCoordinator(&fakeParser{}, index)
	c.SetFilters(model.FilterState{Location: "  ", MinPrice: "n/a"})

	_, err := c.SubmitFilters(context.Background())
	require.Equal(t, ErrorEmptySubmission, CodeOf(err))
	require.Equal(t, 0, index.callCount())
	require.Equal(t, 0, transcript.Len())
	require.Equal(t, StateIdle, c.State())
}

func TestRequestCoordinator_RejectsOverlap(t *testing.T) {
	parser := &fakeParser{result: &model.ParseResult{Text: "ok"}, gate: make(chan struct{})}
	c, transcript, _ := newTestCoordinator(parser, &fakeIndex{})
	c.SetFilters(model.FilterState{Location: "Austin"})

	done := make(chan error, 1)
	go func() {
		_, err := c.SubmitText(context.Background(), "first")
		done <- err
	}()
	require.Eventually(t, func() bool { return parser.callCount() == 1 }, time.Second, time.Millisecond)
	require.Equal(t, StateSubmittingParse, c.State())

	_, err := c.SubmitText(context.Background(), "second")
	require.Equal(t, ErrorBusy, CodeOf(err))
	_, err = c.SubmitFilters(context.Background())
	require.Equal(t, ErrorBusy, CodeOf(err))

	close(parser.gate)
	require.NoError(t, <-done)
	require.Equal(t, 1, parser.callCount())
	require.Equal(t, 2, transcript.Len())
}

func TestRequestCoordinator_AbandonDiscardsLateCompletion(t *testing.T) {
	index := &fakeIndex{results: []model.Property{{ID: "late"}}, gate: make(chan struct{})}
	c, transcript, _ := newTestCoordinator(&fakeParser{}, index)
	c.SetFilters(model.FilterState{Location: "Austin"})

	done := make(chan error, 1)
	go func() {
		_, err := c.SubmitFilters(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return index.callCount() == 1 }, time.Second, time.Millisecond)

	c.Abandon()
	require.Equal(t, StateIdle, c.State())
	close(index.gate)

	require.Equal(t, ErrorSuperseded, CodeOf(<-done))
	require.Equal(t, 1, transcript.Len())
	results, query := c.Results()
	require.Empty(t, results)
	require.Nil(t, query)
}

func TestRequestCoordinator_AbandonDuringParse(t *testing.T) {
	parser := &fakeParser{
		result: &model.ParseResult{
			Text:    "Looking in Austin",
			Filters: &model.CanonicalQuery{Location: []string{"Austin"}},
		},
		gate: make(chan struct{}),
	}
	index := &fakeIndex{results: []model.Property{{ID: "p1"}}}
	c, transcript, _ := newTestCoordinator(parser, index)

	done := make(chan error, 1)
	go func() {
		_, err := c.SubmitText(context.Background(), "homes in austin")
		done <- err
	}()
	require.Eventually(t, func() bool { return parser.callCount() == 1 }, time.Second, time.Millisecond)

	c.Abandon()
	close(parser.gate)

	require.Equal(t, ErrorSuperseded, CodeOf(<-done))
	require.Equal(t, 1, transcript.Len())
	require.Equal(t, 0, index.callCount())
	require.Equal(t, StateIdle, c.State())
	results, query := c.Results()
	require.Empty(t, results)
	require.Nil(t, query)
}

func TestRequestCoordinator_SlowSubscriberDoesNotHoldLock(t *testing.T) {
	c, transcript, _ := newTestCoordinator(&fakeParser{result: &model.ParseResult{Text: "hello"}}, &fakeIndex{})

	release := make(chan struct{})
	received := make(chan model.Turn, 4)
	unsubscribe := transcript.Subscribe(func(turn model.Turn) {
		received <- turn
		<-release
	})
	defer unsubscribe()

	done := make(chan error, 1)
	go func() {
		_, err := c.SubmitText(context.Background(), "hi")
		done <- err
	}()

	select {
	case turn := <-received:
		require.Equal(t, "hi", turn.Text)
	case <-time.After(time.Second):
		t.Fatal("user turn was not delivered")
	}

	// the subscriber is still blocked on the first turn
	states := make(chan RequestState, 1)
	go func() {
		c.SetFilters(model.FilterState{Location: "Austin"})
		states <- c.State()
	}()
	select {
	case state := <-states:
		require.Equal(t, StateSubmittingParse, state)
	case <-time.After(time.Second):
		t.Fatal("coordinator stayed locked while a subscriber was busy")
	}

	close(release)
	require.NoError(t, <-done)
	require.Equal(t, "hello", (<-received).Text)
	require.Equal(t, "Austin", c.Filters().Location)
}

func TestRequestCoordinator_ClearResults(t *testing.T) {
	index := &fakeIndex{results: []model.Property{{ID: "p1"}}}
	c, transcript, _ := newTestCoordinator(&fakeParser{}, index)
	c.SetFilters(model.FilterState{Location: "Austin"})

	_, err := c.SubmitFilters(context.Background())
	require.NoError(t, err)

	c.ClearResults()
	results, query := c.Results()
	require.Empty(t, results)
	require.Nil(t, query)
	require.Equal(t, 2, transcript.Len())
}
