package service

import (
	"fmt"
	"strings"

	"propertychat/internal/model"
	"propertychat/internal/utils"
)

// DisplayGroup is how a client should render a turn
type DisplayGroup string

const (
	GroupUserInput      DisplayGroup = "user-input"
	GroupConversational DisplayGroup = "conversational"
	GroupChatResults    DisplayGroup = "chat-results"
	GroupFilterResults  DisplayGroup = "filter-results"
)

// Header labels for result turns
const (
	HeaderChatResults   = "Chat Response"
	HeaderFilterResults = "Quick Filter Search"
)

// Result summary texts
const (
	textNoResults = "No matches, try adjusting filters."
	textOneResult = "Found 1 option."
)

// QueryChip is one human-readable constraint of a query
type QueryChip struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// TurnView is a turn decorated for display
type TurnView struct {
	model.Turn
	Group  DisplayGroup `json:"group"`
	Header string       `json:"header,omitempty"`
	Chips  []QueryChip  `json:"chips,omitempty"`
}

// GroupOf classifies a turn by author, results and source
func GroupOf(turn model.Turn) DisplayGroup {
	if turn.Author == model.AuthorUser {
		return GroupUserInput
	}
	if !turn.HasResults() {
		return GroupConversational
	}
	if turn.Source == model.SourceStructuredFilter {
		return GroupFilterResults
	}
	return GroupChatResults
}

// PresentTurns decorates turns for display, preserving order
func PresentTurns(turns []model.Turn) []TurnView {
	views := make([]TurnView, 0, len(turns))
	for _, turn := range turns {
		view := TurnView{Turn: turn, Group: GroupOf(turn)}
		switch view.Group {
		case GroupChatResults:
			view.Header = HeaderChatResults
		case GroupFilterResults:
			view.Header = HeaderFilterResults
		}
		if turn.QueryUsed != nil {
			view.Chips = DescribeQuery(*turn.QueryUsed)
		}
		views = append(views, view)
	}
	return views
}

// SummarizeResults produces the assistant text for a result set of size n
func SummarizeResults(n int) string {
	switch n {
	case 0:
		return textNoResults
	case 1:
		return textOneResult
	default:
		return fmt.Sprintf("Found %d options.", n)
	}
}

// DescribeQuery lists the constraints of a query in a fixed order
func DescribeQuery(q model.CanonicalQuery) []QueryChip {
	var chips []QueryChip
	if len(q.Location) > 0 {
		chips = append(chips, QueryChip{Key: "location", Label: "Location", Value: strings.Join(q.Location, ", ")})
	}
	if q.MinPrice != nil {
		chips = append(chips, QueryChip{Key: "min_price", Label: "Min price", Value: utils.FormatNumber(*q.MinPrice)})
	}
	if q.MaxPrice != nil {
		chips = append(chips, QueryChip{Key: "max_price", Label: "Max price", Value: utils.FormatNumber(*q.MaxPrice)})
	}
	if q.MinBedrooms != nil {
		chips = append(chips, QueryChip{Key: "min_bedrooms", Label: "Min bedrooms", Value: fmt.Sprint(*q.MinBedrooms)})
	}
	if q.MinBathrooms != nil {
		chips = append(chips, QueryChip{Key: "min_bathrooms", Label: "Min bathrooms", Value: fmt.Sprint(*q.MinBathrooms)})
	}
	if len(q.Amenities) > 0 {
		chips = append(chips, QueryChip{Key: "amenities", Label: "Amenities", Value: strings.Join(q.Amenities, ", ")})
	}
	return chips
}

// describeFilterSubmission is the user turn text recorded for a filter search
func describeFilterSubmission(q model.CanonicalQuery) string {
	chips := DescribeQuery(q)
	parts := make([]string, 0, len(chips))
	for _, chip := range chips {
		parts = append(parts, chip.Label+": "+chip.Value)
	}
	return "Filter search: " + strings.Join(parts, "; ")
}
