package model

// Property is a search result. The orchestration layer only relies on ID;
// the remaining fields are carried through for display.
type Property struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Price     float64  `json:"price"`
	Location  string   `json:"location"`
	Bedrooms  *int     `json:"bedrooms,omitempty"`
	Bathrooms *int     `json:"bathrooms,omitempty"`
	Size      *float64 `json:"size,omitempty"`
	SizeSqft  *float64 `json:"size_sqft,omitempty"`
	Amenities []string `json:"amenities"`
	Images    []string `json:"images"`
}

// Area returns the first known size value.
func (p Property) Area() *float64 {
	if p.SizeSqft != nil {
		return p.SizeSqft
	}
	return p.Size
}

// PredictedProperty is a Property enriched by the prediction service.
type PredictedProperty struct {
	Property
	PredictedPrice float64                `json:"predicted_price"`
	Features       map[string]interface{} `json:"features"`
}

// SearchResponse is the search backend's page of results.
type SearchResponse struct {
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Results  []Property `json:"results"`
}

// CompareRequest is the prediction service's request body.
type CompareRequest struct {
	AddressA string `json:"address_a"`
	AddressB string `json:"address_b"`
}

// ComparePredictionResponse is the prediction service's response body.
type ComparePredictionResponse struct {
	Properties []PredictedProperty `json:"properties"`
}
