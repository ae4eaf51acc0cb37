package service

import (
	"context"

	"propertychat/internal/model"
)

// IntentParser is the NLP collaborator that turns free text into a reply
// and/or a partial query.
type IntentParser interface {
	Parse(ctx context.Context, text string) (*model.ParseResult, error)
}

// SearchIndex is the property search collaborator.
type SearchIndex interface {
	Search(ctx context.Context, query model.CanonicalQuery) (*model.SearchResponse, error)
}

// SavedStore is the saved-properties collaborator, keyed by user id.
type SavedStore interface {
	ListSaved(ctx context.Context, userID string) ([]model.Property, error)
	Save(ctx context.Context, userID, propertyID string) error
	Unsave(ctx context.Context, userID, propertyID string) error
}

// Predictor is the price prediction collaborator used for address comparison.
type Predictor interface {
	Predict(ctx context.Context, addressA, addressB string) (*model.ComparePredictionResponse, error)
}

// Collaborators bundles every external dependency a Session needs.
type Collaborators struct {
	Parser    IntentParser
	Index     SearchIndex
	Saved     SavedStore
	Predictor Predictor
}

// Ensure BackendClient implements every collaborator
var (
	_ IntentParser = (*BackendClient)(nil)
	_ SearchIndex  = (*BackendClient)(nil)
	_ SavedStore   = (*BackendClient)(nil)
	_ Predictor    = (*BackendClient)(nil)
)
