package model

import "time"

// Author identifies who produced a turn.
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// Source identifies the input path that produced a turn.
type Source string

const (
	SourceFreeText         Source = "free-text"
	SourceStructuredFilter Source = "structured-filter"
)

// Turn is one entry in the conversation transcript.
type Turn struct {
	ID        int64           `json:"id"`
	Author    Author          `json:"author"`
	Text      string          `json:"text"`
	Source    Source          `json:"source"`
	Results   []Property      `json:"results,omitempty"`
	QueryUsed *CanonicalQuery `json:"query_used,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// HasResults reports whether the turn carries a search result set. An empty
// result set still counts; QueryUsed is what marks a results turn.
func (t Turn) HasResults() bool {
	return t.QueryUsed != nil
}
