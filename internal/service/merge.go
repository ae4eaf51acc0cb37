package service

import "propertychat/internal/model"

// MergeQuery combines the base query (derived from the filter form) with the
// overlay produced by the NLP parser. Every field the overlay sets replaces
// the base value; absent overlay fields fall back to the base. Array fields
// are replaced wholesale, never unioned.
func MergeQuery(base, overlay model.CanonicalQuery) model.CanonicalQuery {
	merged := base.Clone()
	o := overlay.Clone()

	if len(o.Location) > 0 {
		merged.Location = o.Location
	}
	if o.MinPrice != nil {
		merged.MinPrice = o.MinPrice
	}
	if o.MaxPrice != nil {
		merged.MaxPrice = o.MaxPrice
	}
	if o.MinBedrooms != nil {
		merged.MinBedrooms = o.MinBedrooms
	}
	if o.MinBathrooms != nil {
		merged.MinBathrooms = o.MinBathrooms
	}
	if len(o.Amenities) > 0 {
		merged.Amenities = o.Amenities
	}

	return merged
}
