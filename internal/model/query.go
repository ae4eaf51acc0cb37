package model

import (
	"encoding/json"
	"net/url"
	"strconv"

	"propertychat/internal/utils"
)

// CanonicalQuery is the normalized, server-ready form of a search.
// An absent constraint is nil (or an empty slice), never a zero value.
type CanonicalQuery struct {
	Location     []string `json:"location,omitempty"` // OR across entries
	MinPrice     *float64 `json:"min_price,omitempty"`
	MaxPrice     *float64 `json:"max_price,omitempty"`
	MinBedrooms  *int     `json:"min_bedrooms,omitempty"`
	MinBathrooms *int     `json:"min_bathrooms,omitempty"`
	Amenities    []string `json:"amenities,omitempty"` // AND, evaluated by the search backend
}

// IsEmpty reports whether the query constrains nothing.
func (q CanonicalQuery) IsEmpty() bool {
	return len(q.Location) == 0 &&
		q.MinPrice == nil &&
		q.MaxPrice == nil &&
		q.MinBedrooms == nil &&
		q.MinBathrooms == nil &&
		len(q.Amenities) == 0
}

// Clone returns a deep copy so callers never share slices or pointers.
func (q CanonicalQuery) Clone() CanonicalQuery {
	out := CanonicalQuery{
		MinPrice:     cloneFloat(q.MinPrice),
		MaxPrice:     cloneFloat(q.MaxPrice),
		MinBedrooms:  cloneInt(q.MinBedrooms),
		MinBathrooms: cloneInt(q.MinBathrooms),
	}
	if len(q.Location) > 0 {
		out.Location = append([]string(nil), q.Location...)
	}
	if len(q.Amenities) > 0 {
		out.Amenities = append([]string(nil), q.Amenities...)
	}
	return out
}

// Values encodes the query for the search backend. Array fields are sent as
// repeated keys (location=A&location=B), never comma joined.
func (q CanonicalQuery) Values() url.Values {
	v := url.Values{}
	for _, loc := range q.Location {
		v.Add("location", loc)
	}
	if q.MinPrice != nil {
		v.Set("min_price", utils.FormatNumber(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		v.Set("max_price", utils.FormatNumber(*q.MaxPrice))
	}
	if q.MinBedrooms != nil {
		v.Set("min_bedrooms", strconv.Itoa(*q.MinBedrooms))
	}
	if q.MinBathrooms != nil {
		v.Set("min_bathrooms", strconv.Itoa(*q.MinBathrooms))
	}
	for _, a := range q.Amenities {
		v.Add("amenities", a)
	}
	return v
}

// Key is a stable identifier for the query, suitable for caching.
func (q CanonicalQuery) Key() string {
	return q.Values().Encode()
}

// UnmarshalJSON decodes leniently: location and amenities may be a string or
// an array, numbers may be quoted, and anything unusable is left absent.
func (q *CanonicalQuery) UnmarshalJSON(data []byte) error {
	var raw struct {
		Location     json.RawMessage `json:"location"`
		MinPrice     json.RawMessage `json:"min_price"`
		MaxPrice     json.RawMessage `json:"max_price"`
		MinBedrooms  json.RawMessage `json:"min_bedrooms"`
		MinBathrooms json.RawMessage `json:"min_bathrooms"`
		Amenities    json.RawMessage `json:"amenities"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*q = CanonicalQuery{
		Location:     utils.StringList(raw.Location),
		MinPrice:     utils.NumberField(raw.MinPrice),
		MaxPrice:     utils.NumberField(raw.MaxPrice),
		MinBedrooms:  utils.IntField(raw.MinBedrooms),
		MinBathrooms: utils.IntField(raw.MinBathrooms),
		Amenities:    utils.StringList(raw.Amenities),
	}
	return nil
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
