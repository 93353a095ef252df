package model

// ScopeDecision is the outcome of classifying a customer query.
type ScopeDecision struct {
	InScope bool
	// Stage records which classifier stage decided: "rules" or "llm".
	Stage string
	// Reason is a short diagnostic, such as the keyword that matched.
	Reason string
}

// OffendingPart describes a part that failed the post-execution scope
// check, carrying enough detail to build the rejection message.
type OffendingPart struct {
	PSNumber  string
	Name      string
	Appliance ApplianceType
}
