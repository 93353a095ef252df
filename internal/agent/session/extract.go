// Package session turns raw tool transcripts into session updates and
// enforces post-execution scope consistency.
package session

import (
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/partdesk/server/internal/agent/model"
)

// listKeys are the payload fields whose elements may describe parts.
var listKeys = []string{"parts", "candidates", "results"}

// Observations pairs every tool message in a transcript with the call
// that produced it. origins maps tool_call_id to the assistant call.
func Observations(msgs []*schema.Message, origins map[string]model.ToolCallOrigin) []model.ToolObservation {
	var out []model.ToolObservation
	for _, msg := range msgs {
		if msg.Role != schema.Tool {
			continue
		}
		obs := model.ToolObservation{Payload: json.RawMessage(msg.Content)}
		if origin, ok := origins[msg.ToolCallID]; ok {
			obs.Tool = origin.Name
			obs.Params = json.RawMessage(origin.Arguments)
		}
		if !json.Valid(obs.Payload) {
			// Keep non-JSON tool output as a quoted string payload.
			quoted, _ := json.Marshal(msg.Content)
			obs.Payload = quoted
		}
		out = append(out, obs)
	}
	return out
}

// Origins builds the tool_call_id index from assistant messages.
func Origins(msgs []*schema.Message) map[string]model.ToolCallOrigin {
	origins := map[string]model.ToolCallOrigin{}
	for _, msg := range msgs {
		if msg.Role != schema.Assistant {
			continue
		}
		for _, tc := range msg.ToolCalls {
			origins[tc.ID] = model.ToolCallOrigin{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			}
		}
	}
	return origins
}

// Update folds tool observations into the session: discussed parts,
// reported symptoms, and confirmed models. When any observation carries
// an out-of-scope part the whole turn is tainted and no part is recorded,
// not even the valid ones; the turn-level rejection that follows must
// leave no trace in session memory. Parts for foreign appliances are
// never recorded; parts without an appliance are recorded unless the
// payload carries an out_of_scope flag.
func Update(s *model.SessionState, observations []model.ToolObservation) {
	tainted := len(FindOutOfScope(observations)) > 0
	for _, obs := range observations {
		var payload any
		if err := json.Unmarshal(obs.Payload, &payload); err != nil {
			continue
		}
		for _, item := range itemsFrom(payload) {
			updateFromItem(s, obs, item, tainted)
		}
	}
}

func updateFromItem(s *model.SessionState, obs model.ToolObservation, item map[string]any, tainted bool) {
	ps := str(item["ps_number"])
	appliance := model.ParseAppliance(str(item["appliance_type"]))
	outOfScope, _ := item["out_of_scope"].(bool)

	if ps != "" && !tainted {
		switch {
		case appliance.Supported():
			s.RecordPart(cardFromItem(item, appliance))
		case appliance == "" && !outOfScope:
			s.RecordPart(cardFromItem(item, ""))
		}
	}

	if obs.Tool == "get_symptoms" && appliance.Supported() {
		if matched := str(item["matched_symptom"]); matched != "" {
			s.RecordSymptom(appliance, matched)
		}
	}

	if obs.Tool == "check_compatibility" && appliance.Supported() {
		if compatible, _ := item["compatible"].(bool); compatible {
			s.RecordModel(appliance, str(item["model_number"]))
		}
	}
}

// CollectParts extracts every well-formed part from the observations,
// deduplicated by PS number in first-seen order. Error payloads and
// entries lacking a name never produce a card.
func CollectParts(observations []model.ToolObservation) []model.PartCard {
	var out []model.PartCard
	seen := map[string]bool{}
	for _, obs := range observations {
		var payload any
		if err := json.Unmarshal(obs.Payload, &payload); err != nil {
			continue
		}
		for _, item := range itemsFrom(payload) {
			if str(item["error"]) != "" {
				continue
			}
			ps := strings.ToUpper(str(item["ps_number"]))
			name := str(item["name"])
			if ps == "" || name == "" || seen[ps] {
				continue
			}
			seen[ps] = true
			card := cardFromItem(item, model.ParseAppliance(str(item["appliance_type"])))
			out = append(out, card)
		}
	}
	return out
}

// FindOutOfScope scans observations for parts that belong to appliances
// outside the supported set, deduplicated by PS number.
func FindOutOfScope(observations []model.ToolObservation) []model.OffendingPart {
	var found []model.OffendingPart
	seen := map[string]bool{}
	record := func(ps, name string, appliance model.ApplianceType) {
		if ps == "" {
			ps = "Unknown"
		}
		if name == "" {
			name = "Unknown Part"
		}
		if appliance == "" {
			appliance = "unknown"
		}
		if seen[ps] {
			return
		}
		seen[ps] = true
		found = append(found, model.OffendingPart{PSNumber: ps, Name: name, Appliance: appliance})
	}

	for _, obs := range observations {
		var payload any
		if err := json.Unmarshal(obs.Payload, &payload); err != nil {
			continue
		}

		for _, item := range itemsFrom(payload) {
			outOfScope, _ := item["out_of_scope"].(bool)
			appliance := model.ParseAppliance(str(item["appliance_type"]))
			switch {
			case outOfScope:
				record(str(item["ps_number"]), str(item["name"]), appliance)
			case appliance != "" && !appliance.Supported():
				record(str(item["ps_number"]), str(item["name"]), appliance)
			}
		}

		// Part-to-models listings carry the appliance only on the model
		// entries; the first one stands in for the part itself.
		if top, ok := payload.(map[string]any); ok {
			if models, ok := top["models"].([]any); ok && len(models) > 0 {
				if first, ok := models[0].(map[string]any); ok {
					appliance := model.ParseAppliance(str(first["appliance_type"]))
					if appliance != "" && !appliance.Supported() {
						record(str(top["part_number"]), "", appliance)
					}
				}
			}
		}
	}
	return found
}

// itemsFrom flattens a decoded payload into candidate part items: the
// top-level object itself, elements of a top-level array, and elements
// of any known list field.
func itemsFrom(payload any) []map[string]any {
	var items []map[string]any
	switch v := payload.(type) {
	case map[string]any:
		items = append(items, v)
		for _, key := range listKeys {
			list, ok := v[key].([]any)
			if !ok {
				continue
			}
			for _, el := range list {
				if m, ok := el.(map[string]any); ok {
					items = append(items, m)
				}
			}
		}
	case []any:
		for _, el := range v {
			if m, ok := el.(map[string]any); ok {
				items = append(items, m)
			}
		}
	}
	return items
}

func cardFromItem(item map[string]any, appliance model.ApplianceType) model.PartCard {
	card := model.PartCard{
		PSNumber:           strings.ToUpper(str(item["ps_number"])),
		Name:               str(item["name"]),
		Appliance:          appliance,
		Brand:              str(item["brand"]),
		ManufacturerNumber: str(item["manufacturer_part_number"]),
		URL:                str(item["url"]),
	}
	if price, ok := item["price"].(float64); ok {
		card.Price = price
	}
	if inStock, ok := item["in_stock"].(bool); ok {
		card.InStock = inStock
	}
	if rating, ok := item["average_rating"].(float64); ok {
		card.AverageRating = rating
	}
	if reviews, ok := item["num_reviews"].(float64); ok {
		card.NumReviews = int(reviews)
	}
	return card
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
