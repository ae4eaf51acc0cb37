package model

import (
	"strings"

	"propertychat/internal/utils"
)

// FilterState holds the raw text of the structured filter fields exactly as
// the user typed them.
type FilterState struct {
	Location     string `json:"location"`
	MinPrice     string `json:"min_price"`
	MaxPrice     string `json:"max_price"`
	MinBedrooms  string `json:"min_bedrooms"`
	MinBathrooms string `json:"min_bathrooms"`
	Amenities    string `json:"amenities"` // comma separated
}

// ToCanonicalQuery normalizes the raw fields. It never fails: blank or
// unparseable input leaves the field absent.
func (f FilterState) ToCanonicalQuery() CanonicalQuery {
	q := CanonicalQuery{
		MinPrice:     utils.ParseNonNegativeFloat(f.MinPrice),
		MaxPrice:     utils.ParseNonNegativeFloat(f.MaxPrice),
		MinBedrooms:  utils.ParseNonNegativeInt(f.MinBedrooms),
		MinBathrooms: utils.ParseNonNegativeInt(f.MinBathrooms),
		Amenities:    utils.SplitList(f.Amenities, ","),
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		q.Location = []string{loc}
	}
	return q
}
