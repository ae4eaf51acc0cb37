package model

// ParseRequest is the body sent to the NLP parser.
type ParseRequest struct {
	Text string `json:"text"`
}

// ParseResult is the NLP parser's reading of a free-text message. Either part
// may be missing: Text is a conversational reply, Filters a partial query.
type ParseResult struct {
	Filters  *CanonicalQuery `json:"filters,omitempty"`
	Text     string          `json:"text,omitempty"`
	Provider string          `json:"provider,omitempty"`
}

// HasText reports whether the parser produced a conversational reply.
func (r ParseResult) HasText() bool {
	return r.Text != ""
}

// HasFilters reports whether the parser produced at least one usable
// constraint.
func (r ParseResult) HasFilters() bool {
	return r.Filters != nil && !r.Filters.IsEmpty()
}
