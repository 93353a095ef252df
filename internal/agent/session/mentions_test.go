package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdesk/server/internal/agent/model"
)

func TestMentionedParts(t *testing.T) {
	mentioned := MentionedParts("I recommend the Door Bin (ps11752778). The Ice Maker (PS12364199) also fits, and PS11752778 ships today.")

	assert.Equal(t, map[string]bool{"PS11752778": true, "PS12364199": true}, mentioned)
}

func TestMentionedPartsNone(t *testing.T) {
	assert.Empty(t, MentionedParts("Could you share your model number first?"))
}

func TestFilterCards(t *testing.T) {
	cards := []model.PartCard{
		{PSNumber: "ps11752778", Name: "Door Bin"},
		{PSNumber: "PS429725", Name: "Water Filter"},
	}

	out := FilterCards(cards, map[string]bool{"PS11752778": true})
	require.Len(t, out, 1)
	assert.Equal(t, "Door Bin", out[0].Name)

	assert.Empty(t, FilterCards(cards, map[string]bool{}))
}

func TestRejectionMessageSinglePart(t *testing.T) {
	msg := RejectionMessage([]model.OffendingPart{
		{PSNumber: "PS2061113", Name: "Turntable Motor", Appliance: "microwave"},
	})

	assert.Equal(t,
		"I'm sorry, but **Turntable Motor (PS2061113)** is a part for a **Microwave**, not a refrigerator or dishwasher.\n\n"+
			"I can only help with **refrigerator** and **dishwasher** parts and repairs. "+
			"If you have questions about fridge or dishwasher parts, I'd be happy to help!",
		msg)
}

func TestRejectionMessageMultipleParts(t *testing.T) {
	msg := RejectionMessage([]model.OffendingPart{
		{PSNumber: "PS1", Name: "Belt", Appliance: "dryer"},
		{PSNumber: "PS2", Name: "Knob", Appliance: "oven"},
	})

	assert.Contains(t, msg, "the following parts are not for refrigerators or dishwashers")
	assert.Contains(t, msg, "- **Belt (PS1)** - Dryer\n")
	assert.Contains(t, msg, "- **Knob (PS2)** - Oven\n")
	assert.Contains(t, msg, "I can only help with **refrigerator** and **dishwasher** parts")
}

func TestRejectionMessageEmpty(t *testing.T) {
	assert.Empty(t, RejectionMessage(nil))
}

func TestPSNumbers(t *testing.T) {
	out := PSNumbers([]model.OffendingPart{{PSNumber: "PS1"}, {PSNumber: "PS2"}})
	assert.Equal(t, []string{"PS1", "PS2"}, out)
}
