package store

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/partdesk/server/internal/agent/model"
)

// MemoryStore is an in-memory Store for local runs and tests. Vector
// methods rank by cosine similarity over embeddings attached at insert
// time; entries without embeddings never match a ranked search.
type MemoryStore struct {
	mu      sync.RWMutex
	parts   map[string]*Part // keyed by upper-cased PS number
	order   []string         // insertion order of PS numbers
	models  map[string]*ApplianceModel
	compat  map[string]map[string]bool // ps -> model numbers
	symp    []Symptom
	guides  []RepairGuide
	qna     []embedded[QnA]
	stories []embedded[RepairStory]
	reviews []embedded[Review]
	vecs    map[string][]float32 // part embeddings, keyed by upper PS
}

type embedded[T any] struct {
	item T
	vec  []float32
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		parts:  map[string]*Part{},
		models: map[string]*ApplianceModel{},
		compat: map[string]map[string]bool{},
		vecs:   map[string][]float32{},
	}
}

func (m *MemoryStore) PartByPS(_ context.Context, ps string) (*Part, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.parts[strings.ToUpper(ps)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) PartsByManufacturerNumber(_ context.Context, mpn string, exact bool) ([]Part, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToUpper(mpn)
	var out []Part
	for _, ps := range m.order {
		p := m.parts[ps]
		have := strings.ToUpper(p.ManufacturerNumber)
		if have == "" {
			continue
		}
		if exact && have == needle {
			out = append(out, *p)
		} else if !exact && strings.Contains(have, needle) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *MemoryStore) SearchParts(_ context.Context, query string, appliance model.ApplianceType, limit int) ([]Part, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	terms := strings.Fields(strings.ToLower(query))
	var out []Part
	for _, ps := range m.order {
		p := m.parts[ps]
		if appliance != "" && p.Appliance != appliance {
			continue
		}
		haystack := strings.ToLower(p.Name + " " + p.Description)
		matched := len(terms) > 0
		for _, t := range terms {
			if !strings.Contains(haystack, t) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, *p)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) InsertPart(_ context.Context, p *Part) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToUpper(p.PSNumber)
	if _, exists := m.parts[key]; !exists {
		m.order = append(m.order, key)
	}
	cp := *p
	m.parts[key] = &cp
	return nil
}

// InsertPartEmbedding attaches a semantic embedding to a part.
func (m *MemoryStore) InsertPartEmbedding(ps string, vec []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vecs[strings.ToUpper(ps)] = vec
}

func (m *MemoryStore) ModelByNumber(_ context.Context, number string) (*ApplianceModel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mm, ok := m.models[strings.ToUpper(number)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *mm
	return &cp, nil
}

func (m *MemoryStore) SearchModels(_ context.Context, fragment string, limit int) ([]ApplianceModel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToUpper(fragment)
	var out []ApplianceModel
	for _, mm := range m.models {
		if strings.Contains(strings.ToUpper(mm.Number), needle) {
			out = append(out, *mm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// InsertModel stores an appliance model.
func (m *MemoryStore) InsertModel(mm *ApplianceModel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *mm
	m.models[strings.ToUpper(mm.Number)] = &cp
}

// LinkCompatibility marks a part as fitting a model.
func (m *MemoryStore) LinkCompatibility(ps, modelNumber string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToUpper(ps)
	if m.compat[key] == nil {
		m.compat[key] = map[string]bool{}
	}
	m.compat[key][strings.ToUpper(modelNumber)] = true
}

func (m *MemoryStore) CompatibleModels(_ context.Context, ps string) ([]ApplianceModel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ApplianceModel
	for number := range m.compat[strings.ToUpper(ps)] {
		if mm, ok := m.models[number]; ok {
			out = append(out, *mm)
		} else {
			out = append(out, ApplianceModel{Number: number})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *MemoryStore) PartsForModel(_ context.Context, modelNumber, brand string) ([]Part, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToUpper(modelNumber)
	var out []Part
	for _, ps := range m.order {
		if !m.compat[ps][needle] {
			continue
		}
		p := m.parts[ps]
		if brand != "" && !strings.EqualFold(p.Brand, brand) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *MemoryStore) IsCompatible(_ context.Context, ps, modelNumber string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.compat[strings.ToUpper(ps)][strings.ToUpper(modelNumber)], nil
}

// InsertSymptom stores a symptom entry.
func (m *MemoryStore) InsertSymptom(s Symptom) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.symp = append(m.symp, s)
}

func (m *MemoryStore) Symptoms(_ context.Context, appliance model.ApplianceType) ([]Symptom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Symptom
	for _, s := range m.symp {
		if s.Appliance == appliance {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryStore) PartsForSymptom(ctx context.Context, appliance model.ApplianceType, symptom string) ([]Part, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(symptom)
	var out []Part
	for _, s := range m.symp {
		if s.Appliance != appliance || !strings.Contains(strings.ToLower(s.Name), needle) {
			continue
		}
		for _, ps := range s.PartNumbers {
			if p, ok := m.parts[strings.ToUpper(ps)]; ok {
				out = append(out, *p)
			}
		}
	}
	return out, nil
}

// InsertRepairGuide stores a troubleshooting guide.
func (m *MemoryStore) InsertRepairGuide(g RepairGuide) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guides = append(m.guides, g)
}

func (m *MemoryStore) RepairGuides(_ context.Context, appliance model.ApplianceType, symptom string) ([]RepairGuide, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(symptom)
	var out []RepairGuide
	for _, g := range m.guides {
		if g.Appliance == appliance && strings.Contains(strings.ToLower(g.Symptom), needle) {
			out = append(out, g)
		}
	}
	return out, nil
}

// InsertQnA stores a Q&A entry with an optional embedding.
func (m *MemoryStore) InsertQnA(q QnA, vec []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.qna = append(m.qna, embedded[QnA]{item: q, vec: vec})
}

func (m *MemoryStore) QnAByPart(_ context.Context, ps string, limit int) ([]QnA, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []QnA
	for _, e := range m.qna {
		if strings.EqualFold(e.item.PSNumber, ps) {
			out = append(out, e.item)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) SearchQnA(_ context.Context, ps string, embedding []float32, threshold float64, limit int) ([]QnA, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []QnA
	for _, e := range m.qna {
		if !strings.EqualFold(e.item.PSNumber, ps) {
			continue
		}
		score := cosine(embedding, e.vec)
		if score >= threshold {
			q := e.item
			q.Score = score
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// InsertRepairStory stores a repair story with an optional embedding.
func (m *MemoryStore) InsertRepairStory(s RepairStory, vec []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stories = append(m.stories, embedded[RepairStory]{item: s, vec: vec})
}

func (m *MemoryStore) RepairStoriesByPart(_ context.Context, ps string, limit int) ([]RepairStory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []RepairStory
	for _, e := range m.stories {
		if strings.EqualFold(e.item.PSNumber, ps) {
			out = append(out, e.item)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) SearchRepairStories(_ context.Context, ps string, embedding []float32, threshold float64, limit int) ([]RepairStory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []RepairStory
	for _, e := range m.stories {
		if !strings.EqualFold(e.item.PSNumber, ps) {
			continue
		}
		score := cosine(embedding, e.vec)
		if score >= threshold {
			s := e.item
			s.Score = score
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// InsertReview stores a review with an optional embedding.
func (m *MemoryStore) InsertReview(r Review, vec []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews = append(m.reviews, embedded[Review]{item: r, vec: vec})
}

func (m *MemoryStore) ReviewsByPart(_ context.Context, ps string, limit int) ([]Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Review
	for _, e := range m.reviews {
		if strings.EqualFold(e.item.PSNumber, ps) {
			out = append(out, e.item)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) SearchReviews(_ context.Context, ps string, embedding []float32, threshold float64, limit int) ([]Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Review
	for _, e := range m.reviews {
		if !strings.EqualFold(e.item.PSNumber, ps) {
			continue
		}
		score := cosine(embedding, e.vec)
		if score >= threshold {
			r := e.item
			r.Score = score
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) SearchPartsSemantic(_ context.Context, embedding []float32, threshold float64, limit int) ([]ScoredPart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ScoredPart
	for _, ps := range m.order {
		vec, ok := m.vecs[ps]
		if !ok {
			continue
		}
		score := cosine(embedding, vec)
		if score >= threshold {
			out = append(out, ScoredPart{Part: *m.parts[ps], Score: score})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
