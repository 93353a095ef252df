package resolve

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/partdesk/server/internal/agent/model"
	"github.com/partdesk/server/internal/store"
)

// Confidence values for part and model resolutions.
const (
	ConfidenceExact    = "exact"
	ConfidenceMatched  = "matched"
	ConfidenceSession  = "session"
	ConfidenceSearch   = "search"
	ConfidencePartial  = "partial"
	ConfidenceNotFound = "not_found"
)

// PartResolution is the structured outcome of resolving a part reference.
// A resolution never invents identifiers: PSNumber is only set when the
// catalog confirmed it (or, for not_found, echoes what the user typed).
type PartResolution struct {
	Resolved           bool                `json:"resolved"`
	PSNumber           string              `json:"ps_number,omitempty"`
	ManufacturerNumber string              `json:"manufacturer_part_number,omitempty"`
	URL                string              `json:"url,omitempty"`
	Confidence         string              `json:"confidence"`
	PartName           string              `json:"part_name,omitempty"`
	Appliance          model.ApplianceType `json:"appliance_type,omitempty"`
	Message            string              `json:"message,omitempty"`
	Candidates         []model.PartCard    `json:"candidates"`
}

// ModelResolution is the structured outcome of resolving a model number.
type ModelResolution struct {
	Resolved    bool                   `json:"resolved"`
	ModelNumber string                 `json:"model_number,omitempty"`
	Brand       string                 `json:"brand,omitempty"`
	Description string                 `json:"description,omitempty"`
	Confidence  string                 `json:"confidence"`
	Message     string                 `json:"message,omitempty"`
	Candidates  []store.ApplianceModel `json:"candidates"`
}

var (
	// Anaphoric references that point back at the session's current part.
	// Word boundaries keep "it" from firing inside words like "filter".
	sessionRefPattern = regexp.MustCompile(`\b(this part|the part|that part|it|this one)\b`)

	urlPattern      = regexp.MustCompile(`(?i)partselect\.com/PS(\d+)`)
	embeddedPS      = regexp.MustCompile(`(?i)PS(\d+)`)
	psExactPattern  = regexp.MustCompile(`(?i)^PS\d+$`)
	mpnShapePattern = regexp.MustCompile(`(?i)^[A-Z0-9\-]+$`)
)

const searchLimit = 5

// Resolver turns free-form part and model references into catalog
// identifiers via a fixed fallback chain: session anaphora, URL,
// PS number, manufacturer number, then text search.
type Resolver struct {
	store store.Store
}

// NewResolver builds a resolver over the given catalog.
func NewResolver(s store.Store) *Resolver {
	return &Resolver{store: s}
}

// ResolvePart resolves a part reference. session may be nil when the
// conversation has no history.
func (r *Resolver) ResolvePart(ctx context.Context, input string, session *model.SessionState) (*PartResolution, error) {
	clean := strings.TrimSpace(input)
	lower := strings.ToLower(clean)

	// 1. Session reference ("this part", "it", ...) validated against the
	// catalog so stale session entries never resolve.
	if session != nil && containsSessionRef(lower) {
		if current := session.CurrentPart(); current != nil {
			part, err := r.store.PartByPS(ctx, current.PSNumber)
			if err == nil {
				return &PartResolution{
					Resolved:   true,
					PSNumber:   part.PSNumber,
					Confidence: ConfidenceSession,
					PartName:   part.Name,
					Appliance:  part.Appliance,
					Candidates: []model.PartCard{},
				}, nil
			}
			if !errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
		}
	}

	// 2. PartSelect URL, or a PS number embedded in longer text.
	for _, pattern := range []*regexp.Regexp{urlPattern, embeddedPS} {
		m := pattern.FindStringSubmatch(clean)
		if m == nil {
			continue
		}
		ps := "PS" + m[1]
		part, err := r.store.PartByPS(ctx, ps)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res := &PartResolution{
			Resolved:   true,
			PSNumber:   part.PSNumber,
			Confidence: ConfidenceExact,
			PartName:   part.Name,
			Appliance:  part.Appliance,
			Candidates: []model.PartCard{},
		}
		if strings.Contains(lower, "partselect") {
			res.URL = clean
		}
		return res, nil
	}

	// 3. Bare PS number. A miss here is terminal: the identifier is
	// explicit, so falling through to search would only fabricate.
	if psExactPattern.MatchString(clean) {
		ps := strings.ToUpper(clean)
		part, err := r.store.PartByPS(ctx, ps)
		if err == nil {
			return &PartResolution{
				Resolved:   true,
				PSNumber:   part.PSNumber,
				Confidence: ConfidenceExact,
				PartName:   part.Name,
				Appliance:  part.Appliance,
				Candidates: []model.PartCard{},
			}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return &PartResolution{
			Resolved:   false,
			PSNumber:   ps,
			Confidence: ConfidenceNotFound,
			Message:    fmt.Sprintf("Part %s not found in database", ps),
			Candidates: []model.PartCard{},
		}, nil
	}

	// 4. Manufacturer part number shape (WPW10321304, 8194001, ...).
	if mpnShapePattern.MatchString(clean) && len(clean) >= 5 {
		mpn := strings.ToUpper(clean)
		parts, err := r.store.PartsByManufacturerNumber(ctx, mpn, true)
		if err != nil {
			return nil, err
		}
		if len(parts) == 0 {
			if parts, err = r.store.PartsByManufacturerNumber(ctx, mpn, false); err != nil {
				return nil, err
			}
		}
		switch {
		case len(parts) == 1:
			p := parts[0]
			return &PartResolution{
				Resolved:           true,
				PSNumber:           p.PSNumber,
				ManufacturerNumber: p.ManufacturerNumber,
				Confidence:         ConfidenceMatched,
				PartName:           p.Name,
				Appliance:          p.Appliance,
				Candidates:         []model.PartCard{},
			}, nil
		case len(parts) > 1:
			return &PartResolution{
				Resolved:   false,
				Confidence: ConfidenceSearch,
				Message:    fmt.Sprintf("Found %d parts matching '%s'", len(parts), clean),
				Candidates: cards(parts),
			}, nil
		}
	}

	// 5. Free-text search.
	found, err := r.store.SearchParts(ctx, clean, "", searchLimit)
	if err != nil {
		return nil, err
	}
	switch {
	case len(found) == 1:
		p := found[0]
		return &PartResolution{
			Resolved:   true,
			PSNumber:   p.PSNumber,
			Confidence: ConfidenceSearch,
			PartName:   p.Name,
			Appliance:  p.Appliance,
			Candidates: []model.PartCard{},
		}, nil
	case len(found) > 1:
		return &PartResolution{
			Resolved:   false,
			Confidence: ConfidenceSearch,
			Message:    fmt.Sprintf("Found %d parts matching '%s'", len(found), clean),
			Candidates: cards(found),
		}, nil
	}

	return &PartResolution{
		Resolved:   false,
		Confidence: ConfidenceNotFound,
		Message:    fmt.Sprintf("No parts found matching '%s'", clean),
		Candidates: []model.PartCard{},
	}, nil
}

// ResolveModel resolves an appliance model number, exact then fuzzy.
func (r *Resolver) ResolveModel(ctx context.Context, input string) (*ModelResolution, error) {
	clean := strings.ToUpper(strings.TrimSpace(input))

	mm, err := r.store.ModelByNumber(ctx, clean)
	if err == nil {
		return &ModelResolution{
			Resolved:    true,
			ModelNumber: mm.Number,
			Brand:       mm.Brand,
			Description: mm.Name,
			Confidence:  ConfidenceExact,
			Candidates:  []store.ApplianceModel{},
		}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	candidates, err := r.store.SearchModels(ctx, clean, searchLimit)
	if err != nil {
		return nil, err
	}
	switch {
	case len(candidates) == 1:
		c := candidates[0]
		return &ModelResolution{
			Resolved:    true,
			ModelNumber: c.Number,
			Brand:       c.Brand,
			Description: c.Name,
			Confidence:  ConfidencePartial,
			Candidates:  []store.ApplianceModel{},
		}, nil
	case len(candidates) > 1:
		return &ModelResolution{
			Resolved:   false,
			Confidence: ConfidencePartial,
			Message:    fmt.Sprintf("Found %d models matching '%s'", len(candidates), clean),
			Candidates: candidates,
		}, nil
	}

	return &ModelResolution{
		Resolved:   false,
		Confidence: ConfidenceNotFound,
		Message:    fmt.Sprintf("No models found matching '%s'", clean),
		Candidates: []store.ApplianceModel{},
	}, nil
}

func containsSessionRef(lower string) bool {
	return sessionRefPattern.MatchString(lower)
}

func cards(parts []store.Part) []model.PartCard {
	out := make([]model.PartCard, 0, len(parts))
	for i := range parts {
		out = append(out, parts[i].Card())
	}
	return out
}
