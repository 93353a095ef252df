package session

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/partdesk/server/internal/agent/model"
)

var psPattern = regexp.MustCompile(`(?i)PS\d+`)

// MentionedParts returns the set of PS numbers the response text actually
// cites, uppercased.
func MentionedParts(response string) map[string]bool {
	mentioned := map[string]bool{}
	for _, match := range psPattern.FindAllString(response, -1) {
		mentioned[strings.ToUpper(match)] = true
	}
	return mentioned
}

// FilterCards keeps only the cards whose PS number appears in mentioned.
// An empty set drops everything: a response that cites no parts ships no
// part cards.
func FilterCards(cards []model.PartCard, mentioned map[string]bool) []model.PartCard {
	var out []model.PartCard
	for _, card := range cards {
		if mentioned[strings.ToUpper(card.PSNumber)] {
			out = append(out, card)
		}
	}
	return out
}

func titleAppliance(a model.ApplianceType) string {
	s := string(a)
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// RejectionMessage renders the refusal for parts that belong to other
// appliances, in place of whatever the agent drafted.
func RejectionMessage(parts []model.OffendingPart) string {
	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		p := parts[0]
		return fmt.Sprintf(
			"I'm sorry, but **%s (%s)** is a part for a **%s**, not a refrigerator or dishwasher.\n\n"+
				"I can only help with **refrigerator** and **dishwasher** parts and repairs. "+
				"If you have questions about fridge or dishwasher parts, I'd be happy to help!",
			p.Name, p.PSNumber, titleAppliance(p.Appliance))
	}
	var b strings.Builder
	b.WriteString("I'm sorry, but the following parts are not for refrigerators or dishwashers:\n\n")
	for _, p := range parts {
		fmt.Fprintf(&b, "- **%s (%s)** - %s\n", p.Name, p.PSNumber, titleAppliance(p.Appliance))
	}
	b.WriteString("\nI can only help with **refrigerator** and **dishwasher** parts and repairs. " +
		"If you have questions about fridge or dishwasher parts, I'd be happy to help!")
	return b.String()
}

// PSNumbers lists the offending PS numbers for session purging.
func PSNumbers(parts []model.OffendingPart) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.PSNumber)
	}
	return out
}
