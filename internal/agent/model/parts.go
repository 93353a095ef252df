package model

import "encoding/json"

// PartCard is the normalised view of a part as surfaced to the customer
// and remembered in the session.
type PartCard struct {
	PSNumber           string        `json:"ps_number"`
	Name               string        `json:"name"`
	Appliance          ApplianceType `json:"appliance,omitempty"`
	Brand              string        `json:"brand,omitempty"`
	ManufacturerNumber string        `json:"manufacturer_part_number,omitempty"`
	Price              float64       `json:"price,omitempty"`
	InStock            bool          `json:"in_stock,omitempty"`
	AverageRating      float64       `json:"average_rating,omitempty"`
	NumReviews         int           `json:"num_reviews,omitempty"`
	URL                string        `json:"url,omitempty"`
}

// TurnInput carries one customer message into the pipeline.
type TurnInput struct {
	ConversationID string
	Query          string
	Session        *SessionState
}

// ToolObservation is the recorded outcome of one tool invocation during a
// turn: which tool ran, with what arguments, and the raw JSON it returned.
type ToolObservation struct {
	Description string          `json:"description,omitempty"`
	Tool        string          `json:"tool"`
	Params      json.RawMessage `json:"params,omitempty"`
	Payload     json.RawMessage `json:"result,omitempty"`
	Err         string          `json:"error,omitempty"`
}

// TurnDraft is everything the pipeline gathered before response synthesis.
// When Rejected is set the Response already carries the final text and no
// synthesis model is consulted.
type TurnDraft struct {
	ConversationID string
	Query          string
	Session        *SessionState
	Observations   []ToolObservation
	AgentAnalysis  string
	SynthesisHint  string
	Rejected       bool
	Response       string
}

// TurnResult is the finalised outcome of one turn.
type TurnResult struct {
	Response string
	Session  *SessionState
	Parts    []PartCard
}
