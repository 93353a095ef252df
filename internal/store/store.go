package store

import (
	"context"
	"errors"

	"github.com/partdesk/server/internal/agent/model"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("store: not found")

// Part is a catalog entry as persisted.
type Part struct {
	PSNumber           string              `json:"ps_number"`
	Name               string              `json:"name"`
	Appliance          model.ApplianceType `json:"appliance_type"`
	Brand              string              `json:"brand,omitempty"`
	ManufacturerNumber string              `json:"manufacturer_part_number,omitempty"`
	Description        string              `json:"description,omitempty"`
	Price              float64             `json:"price,omitempty"`
	InStock            bool                `json:"in_stock"`
	AverageRating      float64             `json:"average_rating,omitempty"`
	NumReviews         int                 `json:"num_reviews,omitempty"`
	URL                string              `json:"url,omitempty"`
	InstallDifficulty  string              `json:"install_difficulty,omitempty"`
	InstallTime        string              `json:"install_time,omitempty"`
	InstallVideoURL    string              `json:"install_video_url,omitempty"`
	FixesSymptoms      []string            `json:"fixes_symptoms,omitempty"`
}

// Card converts a catalog part to its session-facing view.
func (p *Part) Card() model.PartCard {
	return model.PartCard{
		PSNumber:           p.PSNumber,
		Name:               p.Name,
		Appliance:          p.Appliance,
		Brand:              p.Brand,
		ManufacturerNumber: p.ManufacturerNumber,
		Price:              p.Price,
		InStock:            p.InStock,
		AverageRating:      p.AverageRating,
		NumReviews:         p.NumReviews,
		URL:                p.URL,
	}
}

// ApplianceModel is an appliance model entry.
type ApplianceModel struct {
	Number    string              `json:"model_number"`
	Brand     string              `json:"brand,omitempty"`
	Appliance model.ApplianceType `json:"appliance_type"`
	Name      string              `json:"name,omitempty"`
}

// Symptom describes a failure mode and the parts that commonly fix it.
type Symptom struct {
	Appliance   model.ApplianceType `json:"appliance_type"`
	Name        string              `json:"symptom"`
	Description string              `json:"description,omitempty"`
	PartNumbers []string            `json:"part_numbers,omitempty"`
}

// RepairGuide is a troubleshooting guide for an appliance symptom.
type RepairGuide struct {
	Appliance  model.ApplianceType `json:"appliance_type"`
	Symptom    string              `json:"symptom"`
	Title      string              `json:"title"`
	Difficulty string              `json:"difficulty,omitempty"`
	Steps      []string            `json:"steps"`
}

// QnA is a customer question and answer attached to a part.
type QnA struct {
	PSNumber string  `json:"ps_number"`
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Score    float64 `json:"score,omitempty"`
}

// RepairStory is a customer-submitted repair narrative for a part.
type RepairStory struct {
	PSNumber   string  `json:"ps_number"`
	Title      string  `json:"title"`
	Story      string  `json:"story"`
	Difficulty string  `json:"difficulty,omitempty"`
	Score      float64 `json:"score,omitempty"`
}

// Review is a customer review of a part.
type Review struct {
	PSNumber string  `json:"ps_number"`
	Rating   int     `json:"rating,omitempty"`
	Title    string  `json:"title,omitempty"`
	Body     string  `json:"body"`
	Score    float64 `json:"score,omitempty"`
}

// ScoredPart pairs a part with a semantic similarity score.
type ScoredPart struct {
	Part
	Score float64 `json:"score"`
}

// Store is the catalog backing the tool layer.
//
// Vector methods take a precomputed query embedding; embedding text is the
// caller's concern. Lookups that match nothing return ErrNotFound for
// single-row methods and empty slices for list methods.
type Store interface {
	// PartByPS fetches a part by its PS number (case-insensitive).
	PartByPS(ctx context.Context, ps string) (*Part, error)

	// PartsByManufacturerNumber finds parts by manufacturer part number.
	// With exact set, only full matches are returned; otherwise prefix and
	// substring matches qualify.
	PartsByManufacturerNumber(ctx context.Context, mpn string, exact bool) ([]Part, error)

	// SearchParts runs a keyword search over part names and descriptions,
	// optionally restricted to one appliance.
	SearchParts(ctx context.Context, query string, appliance model.ApplianceType, limit int) ([]Part, error)

	// InsertPart stores a part, used when live-scraped data is folded in.
	InsertPart(ctx context.Context, p *Part) error

	// ModelByNumber fetches an appliance model by exact number.
	ModelByNumber(ctx context.Context, number string) (*ApplianceModel, error)

	// SearchModels finds models whose number contains the given fragment.
	SearchModels(ctx context.Context, fragment string, limit int) ([]ApplianceModel, error)

	// CompatibleModels lists models a part fits.
	CompatibleModels(ctx context.Context, ps string) ([]ApplianceModel, error)

	// PartsForModel lists parts that fit a model, optionally by brand.
	PartsForModel(ctx context.Context, modelNumber, brand string) ([]Part, error)

	// IsCompatible reports whether a part fits a specific model.
	IsCompatible(ctx context.Context, ps, modelNumber string) (bool, error)

	// Symptoms lists known symptoms for an appliance.
	Symptoms(ctx context.Context, appliance model.ApplianceType) ([]Symptom, error)

	// PartsForSymptom lists parts that commonly fix a symptom.
	PartsForSymptom(ctx context.Context, appliance model.ApplianceType, symptom string) ([]Part, error)

	// RepairGuides fetches troubleshooting guides for a symptom.
	RepairGuides(ctx context.Context, appliance model.ApplianceType, symptom string) ([]RepairGuide, error)

	// QnAByPart lists Q&A entries for a part without ranking.
	QnAByPart(ctx context.Context, ps string, limit int) ([]QnA, error)

	// SearchQnA ranks a part's Q&A entries against a query embedding.
	SearchQnA(ctx context.Context, ps string, embedding []float32, threshold float64, limit int) ([]QnA, error)

	// RepairStoriesByPart lists repair stories for a part without ranking.
	RepairStoriesByPart(ctx context.Context, ps string, limit int) ([]RepairStory, error)

	// SearchRepairStories ranks a part's repair stories against a query embedding.
	SearchRepairStories(ctx context.Context, ps string, embedding []float32, threshold float64, limit int) ([]RepairStory, error)

	// ReviewsByPart lists reviews for a part without ranking.
	ReviewsByPart(ctx context.Context, ps string, limit int) ([]Review, error)

	// SearchReviews ranks a part's reviews against a query embedding.
	SearchReviews(ctx context.Context, ps string, embedding []float32, threshold float64, limit int) ([]Review, error)

	// SearchPartsSemantic ranks the whole catalog against a query embedding.
	SearchPartsSemantic(ctx context.Context, embedding []float32, threshold float64, limit int) ([]ScoredPart, error)
}
