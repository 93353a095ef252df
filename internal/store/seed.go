package store

import (
	"context"

	"github.com/partdesk/server/internal/agent/model"
)

// SeedDemo loads a small appliance-part catalog into a memory store for
// local runs and tests. One microwave part is deliberately included so
// the downstream scope checks have something to reject.
func SeedDemo(m *MemoryStore) {
	ctx := context.Background()

	parts := []Part{
		{
			PSNumber:           "PS11752778",
			Name:               "Refrigerator Door Shelf Bin",
			Appliance:          model.ApplianceRefrigerator,
			Brand:              "Whirlpool",
			ManufacturerNumber: "WPW10321304",
			Description:        "Clear door bin for the refrigerator section, fits many side-by-side models",
			Price:              36.18,
			InStock:            true,
			AverageRating:      4.8,
			NumReviews:         412,
			URL:                "https://www.partselect.com/PS11752778-Whirlpool-WPW10321304-Refrigerator-Door-Bin.htm",
			InstallDifficulty:  "Easy",
			InstallTime:        "Less than 15 minutes",
			FixesSymptoms:      []string{"Door won't close properly", "Shelf cracked or broken"},
		},
		{
			PSNumber:           "PS12364199",
			Name:               "Refrigerator Ice Maker Assembly",
			Appliance:          model.ApplianceRefrigerator,
			Brand:              "Whirlpool",
			ManufacturerNumber: "W11424126",
			Description:        "Complete ice maker assembly, replaces optic-style ice makers",
			Price:              139.89,
			InStock:            true,
			URL:                "https://www.partselect.com/PS12364199-Whirlpool-W11424126-Ice-Maker-Assembly.htm",
			InstallDifficulty:  "Moderate",
			InstallTime:        "30-60 minutes",
			FixesSymptoms:      []string{"Ice maker not making ice", "Ice maker leaking"},
		},
		{
			PSNumber:           "PS429725",
			Name:               "Refrigerator Water Filter",
			Appliance:          model.ApplianceRefrigerator,
			Brand:              "GE",
			ManufacturerNumber: "MWF",
			Description:        "Replacement water filter cartridge, reduces chlorine taste and odor",
			Price:              49.75,
			InStock:            true,
			AverageRating:      4.6,
			NumReviews:         187,
			URL:                "https://www.partselect.com/PS429725-GE-MWF-Water-Filter.htm",
			InstallDifficulty:  "Easy",
			InstallTime:        "Less than 15 minutes",
			FixesSymptoms:      []string{"Bad taste or odor in water", "Slow water dispensing"},
		},
		{
			PSNumber:           "PS11746337",
			Name:               "Dishwasher Upper Rack Adjuster Kit",
			Appliance:          model.ApplianceDishwasher,
			Brand:              "Whirlpool",
			ManufacturerNumber: "W10712395",
			Description:        "Adjuster kit for the upper dishrack, includes wheels and mounts",
			Price:              33.61,
			InStock:            true,
			URL:                "https://www.partselect.com/PS11746337-Whirlpool-W10712395-Rack-Adjuster-Kit.htm",
			InstallDifficulty:  "Easy",
			InstallTime:        "15-30 minutes",
			FixesSymptoms:      []string{"Upper rack falls or tilts", "Rack wheels broken"},
		},
		{
			PSNumber:           "PS11722167",
			Name:               "Dishwasher Circulation Pump and Motor",
			Appliance:          model.ApplianceDishwasher,
			Brand:              "Bosch",
			ManufacturerNumber: "00753351",
			Description:        "Circulation pump with heater, drives wash arms during the cycle",
			Price:              243.95,
			InStock:            false,
			URL:                "https://www.partselect.com/PS11722167-Bosch-00753351-Circulation-Pump.htm",
			InstallDifficulty:  "Difficult",
			InstallTime:        "1-2 hours",
			FixesSymptoms:      []string{"Dishes not getting clean", "Dishwasher not draining", "Loud humming during cycle"},
		},
		{
			PSNumber:           "PS2061113",
			Name:               "Microwave Turntable Motor",
			Appliance:          "microwave",
			Brand:              "GE",
			ManufacturerNumber: "WB26X10038",
			Description:        "Turntable drive motor for countertop microwaves",
			Price:              28.40,
			InStock:            true,
			URL:                "https://www.partselect.com/PS2061113-GE-WB26X10038-Turntable-Motor.htm",
			InstallDifficulty:  "Moderate",
			InstallTime:        "30-60 minutes",
		},
	}
	for i := range parts {
		_ = m.InsertPart(ctx, &parts[i])
	}

	m.InsertModel(&ApplianceModel{Number: "WDT780SAEM1", Brand: "Whirlpool", Appliance: model.ApplianceDishwasher, Name: "24in Built-In Dishwasher"})
	m.InsertModel(&ApplianceModel{Number: "WRS325SDHZ", Brand: "Whirlpool", Appliance: model.ApplianceRefrigerator, Name: "36in Side-by-Side Refrigerator"})
	m.InsertModel(&ApplianceModel{Number: "GSS25GSHSS", Brand: "GE", Appliance: model.ApplianceRefrigerator, Name: "25.3 cu ft Side-by-Side Refrigerator"})

	m.LinkCompatibility("PS11752778", "WRS325SDHZ")
	m.LinkCompatibility("PS12364199", "WRS325SDHZ")
	m.LinkCompatibility("PS429725", "GSS25GSHSS")
	m.LinkCompatibility("PS11746337", "WDT780SAEM1")

	m.InsertSymptom(Symptom{
		Appliance:   model.ApplianceRefrigerator,
		Name:        "Ice maker not making ice",
		Description: "No ice production, or ice cubes are small and hollow",
		PartNumbers: []string{"PS12364199", "PS429725"},
	})
	m.InsertSymptom(Symptom{
		Appliance:   model.ApplianceRefrigerator,
		Name:        "Bad taste or odor in water",
		Description: "Dispensed water tastes of chlorine or smells stale",
		PartNumbers: []string{"PS429725"},
	})
	m.InsertSymptom(Symptom{
		Appliance:   model.ApplianceDishwasher,
		Name:        "Dishes not getting clean",
		Description: "Food residue left on dishes after a full cycle",
		PartNumbers: []string{"PS11722167"},
	})
	m.InsertSymptom(Symptom{
		Appliance:   model.ApplianceDishwasher,
		Name:        "Upper rack falls or tilts",
		Description: "Top rack drops on one side or slides off its track",
		PartNumbers: []string{"PS11746337"},
	})

	m.InsertRepairGuide(RepairGuide{
		Appliance:  model.ApplianceRefrigerator,
		Symptom:    "Ice maker not making ice",
		Title:      "Diagnosing an ice maker that stopped producing ice",
		Difficulty: "Moderate",
		Steps: []string{
			"Check the water supply line valve behind the refrigerator is fully open",
			"Confirm the freezer is at or below 10F; warm freezers halt ice production",
			"Inspect the fill tube for ice blockage and thaw it if frozen",
			"Replace the water filter if it is more than six months old",
			"If water reaches the mold but no ice ejects, replace the ice maker assembly",
		},
	})
	m.InsertRepairGuide(RepairGuide{
		Appliance:  model.ApplianceDishwasher,
		Symptom:    "Dishes not getting clean",
		Title:      "Troubleshooting poor wash performance",
		Difficulty: "Easy",
		Steps: []string{
			"Clear food debris from the filter at the bottom of the tub",
			"Spin both wash arms by hand and clear any clogged spray holes",
			"Run a cycle with a dishwasher cleaner to remove grease buildup",
			"If the wash arms do not spin during a cycle, test the circulation pump",
		},
	})

	m.InsertQnA(QnA{
		PSNumber: "PS11752778",
		Question: "Will this bin fit a WRS325SDHZ?",
		Answer:   "Yes, this door bin is compatible with the WRS325SDHZ side-by-side model.",
	}, nil)
	m.InsertQnA(QnA{
		PSNumber: "PS12364199",
		Question: "Does this come with the wiring harness?",
		Answer:   "The assembly ships with the harness attached; no extra wiring is needed.",
	}, nil)

	m.InsertRepairStory(RepairStory{
		PSNumber:   "PS11746337",
		Title:      "Upper rack kept collapsing",
		Story:      "The plastic adjusters had cracked. Swapped both sides with this kit in about twenty minutes, rack rolls smoothly again.",
		Difficulty: "Easy",
	}, nil)

	m.InsertReview(Review{
		PSNumber: "PS429725",
		Rating:   5,
		Title:    "Water tastes right again",
		Body:     "Exact fit for my GE fridge, took two minutes to swap and the chlorine taste is gone.",
	}, nil)
}
