package models

// Franchise is the fixed franchise tag for the supported card domain.
const Franchise = "pokemon"

// ParsedAttributes holds the structured fields extracted from a listing
// title. Every populated field is fully normalized (trimmed, lowercased,
// synonym-mapped); an empty string means the attribute was not found.
type ParsedAttributes struct {
	Franchise      string `json:"franchise"`
	SetName        string `json:"set_name,omitempty"`
	CardName       string `json:"card_name,omitempty"`
	Edition        string `json:"edition,omitempty"`
	CardNumber     string `json:"card_number,omitempty"`
	Year           string `json:"year,omitempty"`
	GradingCompany string `json:"grading_company,omitempty"`
	Grade          string `json:"grade,omitempty"`
	IsHolo         bool   `json:"is_holo"`
}

// ConfidenceScore describes how much of a listing's identity could be
// recovered. TitleParse covers the title alone; Overall folds in whether the
// item carried the price and identifier needed to persist it.
type ConfidenceScore struct {
	TitleParse float64 `json:"title_parse"`
	Overall    float64 `json:"overall"`
}

// NormalizeRequest is the request for normalizing a single title
type NormalizeRequest struct {
	Title    string   `json:"title" validate:"required"`
	Price    *float64 `json:"price,omitempty"`
	Currency string   `json:"currency,omitempty"`
	ItemID   string   `json:"item_id,omitempty"`
}

// NormalizeResponse is the response for a normalize call
type NormalizeResponse struct {
	Attributes   ParsedAttributes `json:"attributes"`
	Confidence   ConfidenceScore  `json:"confidence"`
	CanonicalKey string           `json:"canonical_key"`
}
