package model

import "strings"

// ApplianceType identifies an appliance category the assistant supports.
type ApplianceType string

const (
	ApplianceRefrigerator ApplianceType = "refrigerator"
	ApplianceDishwasher   ApplianceType = "dishwasher"
)

// Supported reports whether the appliance is one the assistant covers.
func (a ApplianceType) Supported() bool {
	return a == ApplianceRefrigerator || a == ApplianceDishwasher
}

// ParseAppliance normalises a free-form appliance string. Unknown values
// are returned as-is so callers can surface them in rejection messages.
func ParseAppliance(v string) ApplianceType {
	return ApplianceType(strings.ToLower(strings.TrimSpace(v)))
}

// Turn is a single entry in the conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// maxHistoryTurns caps how many history entries a session retains.
	maxHistoryTurns = 10
)

// ApplianceContext tracks what has been discussed for one appliance.
type ApplianceContext struct {
	Parts    []PartCard `json:"parts,omitempty"`
	Symptoms []string   `json:"symptoms,omitempty"`
	Models   []string   `json:"models,omitempty"`
}

// SessionState is the per-conversation memory the agent carries between
// turns. It round-trips through the session repository as JSON.
//
// Methods are not safe for concurrent use; each turn owns its session
// copy while the pipeline runs.
type SessionState struct {
	Appliances     map[ApplianceType]*ApplianceContext `json:"appliances,omitempty"`
	Focus          ApplianceType                       `json:"focus,omitempty"`
	DiscussedParts []PartCard                          `json:"discussed_parts,omitempty"`
	History        []Turn                              `json:"history,omitempty"`
}

// NewSessionState returns an empty session.
func NewSessionState() *SessionState {
	return &SessionState{Appliances: map[ApplianceType]*ApplianceContext{}}
}

// Appliance returns the context for the given appliance, creating it when absent.
func (s *SessionState) Appliance(a ApplianceType) *ApplianceContext {
	if s.Appliances == nil {
		s.Appliances = map[ApplianceType]*ApplianceContext{}
	}
	c, ok := s.Appliances[a]
	if !ok {
		c = &ApplianceContext{}
		s.Appliances[a] = c
	}
	return c
}

// RecordPart adds a part to the discussed set. Recording a part that is
// already present leaves its original position untouched, so the first
// recommendation of a conversation stays first. Parts with a supported
// appliance also land in that appliance's context and move the focus.
func (s *SessionState) RecordPart(p PartCard) {
	if p.PSNumber == "" {
		return
	}
	if !containsPart(s.DiscussedParts, p.PSNumber) {
		s.DiscussedParts = append(s.DiscussedParts, p)
	}
	a := ParseAppliance(string(p.Appliance))
	if !a.Supported() {
		return
	}
	ac := s.Appliance(a)
	if !containsPart(ac.Parts, p.PSNumber) {
		ac.Parts = append(ac.Parts, p)
	}
	s.Focus = a
}

// RecordSymptom remembers a reported symptom for an appliance.
func (s *SessionState) RecordSymptom(a ApplianceType, symptom string) {
	if !a.Supported() || symptom == "" {
		return
	}
	ac := s.Appliance(a)
	for _, have := range ac.Symptoms {
		if strings.EqualFold(have, symptom) {
			return
		}
	}
	ac.Symptoms = append(ac.Symptoms, symptom)
	s.Focus = a
}

// RecordModel remembers a model number the customer mentioned.
func (s *SessionState) RecordModel(a ApplianceType, modelNumber string) {
	if !a.Supported() || modelNumber == "" {
		return
	}
	ac := s.Appliance(a)
	for _, have := range ac.Models {
		if strings.EqualFold(have, modelNumber) {
			return
		}
	}
	ac.Models = append(ac.Models, modelNumber)
	s.Focus = a
}

// CurrentPart returns the most recently discussed part, or nil.
func (s *SessionState) CurrentPart() *PartCard {
	if len(s.DiscussedParts) == 0 {
		return nil
	}
	p := s.DiscussedParts[len(s.DiscussedParts)-1]
	return &p
}

// FirstPart returns the first part ever discussed, or nil.
func (s *SessionState) FirstPart() *PartCard {
	if len(s.DiscussedParts) == 0 {
		return nil
	}
	p := s.DiscussedParts[0]
	return &p
}

// FilterToMentioned keeps only parts whose PS number appears in mentioned,
// preserving order. An empty mention set clears the discussed parts
// entirely, so session memory never outruns what the customer was told.
func (s *SessionState) FilterToMentioned(mentioned map[string]bool) {
	s.DiscussedParts = filterParts(s.DiscussedParts, mentioned)
	for _, ac := range s.Appliances {
		ac.Parts = filterParts(ac.Parts, mentioned)
	}
}

// PurgeParts drops the given PS numbers from the discussed set and every
// appliance context.
func (s *SessionState) PurgeParts(psNumbers []string) {
	drop := map[string]bool{}
	for _, ps := range psNumbers {
		drop[strings.ToUpper(ps)] = true
	}
	keep := func(parts []PartCard) []PartCard {
		out := parts[:0]
		for _, p := range parts {
			if !drop[strings.ToUpper(p.PSNumber)] {
				out = append(out, p)
			}
		}
		return out
	}
	s.DiscussedParts = keep(s.DiscussedParts)
	for _, ac := range s.Appliances {
		ac.Parts = keep(ac.Parts)
	}
}

// AddTurn appends a history entry, evicting the oldest entries beyond the cap.
func (s *SessionState) AddTurn(role, content string) {
	s.History = append(s.History, Turn{Role: role, Content: content})
	if len(s.History) > maxHistoryTurns {
		s.History = s.History[len(s.History)-maxHistoryTurns:]
	}
}

// RecentHistory returns up to n of the most recent history entries.
func (s *SessionState) RecentHistory(n int) []Turn {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

func containsPart(parts []PartCard, ps string) bool {
	for _, p := range parts {
		if strings.EqualFold(p.PSNumber, ps) {
			return true
		}
	}
	return false
}

func filterParts(parts []PartCard, mentioned map[string]bool) []PartCard {
	if len(mentioned) == 0 {
		return nil
	}
	out := parts[:0]
	for _, p := range parts {
		if mentioned[strings.ToUpper(p.PSNumber)] {
			out = append(out, p)
		}
	}
	return out
}
