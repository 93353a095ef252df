package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/partdesk/server/internal/agent/model"
)

// PostgresStore implements Store on Postgres + pgvector.
//
// Expected schema: parts, models, part_models (compatibility join),
// symptoms, symptom_parts, repair_guides, part_qna, part_repair_stories,
// part_reviews. Text tables carry an `embedding vector` column.
type PostgresStore struct {
	DB *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{DB: db}
}

func (p *PostgresStore) PartByPS(ctx context.Context, ps string) (*Part, error) {
	row := p.DB.QueryRow(ctx, `
        SELECT ps_number, name, appliance_type, brand, manufacturer_number, description,
               price, in_stock, average_rating, num_reviews, url, install_difficulty, install_time, install_video_url, fixes_symptoms
        FROM parts
        WHERE upper(ps_number) = upper($1);
        `, ps)
	part, err := scanPart(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return part, nil
}

func (p *PostgresStore) PartsByManufacturerNumber(ctx context.Context, mpn string, exact bool) ([]Part, error) {
	query := `
        SELECT ps_number, name, appliance_type, brand, manufacturer_number, description,
               price, in_stock, average_rating, num_reviews, url, install_difficulty, install_time, install_video_url, fixes_symptoms
        FROM parts
        WHERE upper(manufacturer_number) = upper($1);
        `
	arg := mpn
	if !exact {
		query = strings.Replace(query, "= upper($1)", "LIKE upper($1)", 1)
		arg = "%" + mpn + "%"
	}
	rows, err := p.DB.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectParts(rows)
}

func (p *PostgresStore) SearchParts(ctx context.Context, query string, appliance model.ApplianceType, limit int) ([]Part, error) {
	sql := `
        SELECT ps_number, name, appliance_type, brand, manufacturer_number, description,
               price, in_stock, average_rating, num_reviews, url, install_difficulty, install_time, install_video_url, fixes_symptoms
        FROM parts
        WHERE (name ILIKE $1 OR description ILIKE $1)
        `
	args := []any{"%" + query + "%"}
	if appliance != "" {
		sql += " AND appliance_type = $2"
		args = append(args, string(appliance))
	}
	sql += fmt.Sprintf(" LIMIT %d;", limit)
	rows, err := p.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectParts(rows)
}

func (p *PostgresStore) InsertPart(ctx context.Context, part *Part) error {
	_, err := p.DB.Exec(ctx, `
        INSERT INTO parts (ps_number, name, appliance_type, brand, manufacturer_number, description,
                           price, in_stock, average_rating, num_reviews, url, install_difficulty, install_time, install_video_url, fixes_symptoms)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        ON CONFLICT (ps_number) DO UPDATE SET
            name = EXCLUDED.name,
            appliance_type = EXCLUDED.appliance_type,
            price = EXCLUDED.price,
            in_stock = EXCLUDED.in_stock;
        `, part.PSNumber, part.Name, string(part.Appliance), part.Brand, part.ManufacturerNumber,
		part.Description, part.Price, part.InStock, part.AverageRating, part.NumReviews, part.URL,
		part.InstallDifficulty, part.InstallTime, part.InstallVideoURL, part.FixesSymptoms)
	return err
}

func (p *PostgresStore) ModelByNumber(ctx context.Context, number string) (*ApplianceModel, error) {
	var m ApplianceModel
	var appliance string
	err := p.DB.QueryRow(ctx, `
        SELECT model_number, brand, appliance_type, name
        FROM models
        WHERE upper(model_number) = upper($1);
        `, number).Scan(&m.Number, &m.Brand, &appliance, &m.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m.Appliance = model.ApplianceType(appliance)
	return &m, nil
}

func (p *PostgresStore) SearchModels(ctx context.Context, fragment string, limit int) ([]ApplianceModel, error) {
	rows, err := p.DB.Query(ctx, `
        SELECT model_number, brand, appliance_type, name
        FROM models
        WHERE model_number ILIKE $1
        LIMIT $2;
        `, "%"+fragment+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectModels(rows)
}

func (p *PostgresStore) CompatibleModels(ctx context.Context, ps string) ([]ApplianceModel, error) {
	rows, err := p.DB.Query(ctx, `
        SELECT m.model_number, m.brand, m.appliance_type, m.name
        FROM models m
        JOIN part_models pm ON pm.model_number = m.model_number
        WHERE upper(pm.ps_number) = upper($1);
        `, ps)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectModels(rows)
}

func (p *PostgresStore) PartsForModel(ctx context.Context, modelNumber, brand string) ([]Part, error) {
	sql := `
        SELECT pt.ps_number, pt.name, pt.appliance_type, pt.brand, pt.manufacturer_number, pt.description,
               pt.price, pt.in_stock, pt.average_rating, pt.num_reviews, pt.url, pt.install_difficulty, pt.install_time, pt.install_video_url, pt.fixes_symptoms
        FROM parts pt
        JOIN part_models pm ON pm.ps_number = pt.ps_number
        WHERE upper(pm.model_number) = upper($1)
        `
	args := []any{modelNumber}
	if brand != "" {
		sql += " AND pt.brand ILIKE $2"
		args = append(args, brand)
	}
	rows, err := p.DB.Query(ctx, sql+";", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectParts(rows)
}

func (p *PostgresStore) IsCompatible(ctx context.Context, ps, modelNumber string) (bool, error) {
	var n int
	err := p.DB.QueryRow(ctx, `
        SELECT count(*) FROM part_models
        WHERE upper(ps_number) = upper($1) AND upper(model_number) = upper($2);
        `, ps, modelNumber).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p *PostgresStore) Symptoms(ctx context.Context, appliance model.ApplianceType) ([]Symptom, error) {
	rows, err := p.DB.Query(ctx, `
        SELECT appliance_type, symptom, description,
               COALESCE((SELECT array_agg(ps_number) FROM symptom_parts sp WHERE sp.symptom_id = s.id), '{}')
        FROM symptoms s
        WHERE appliance_type = $1;
        `, string(appliance))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Symptom
	for rows.Next() {
		var s Symptom
		var app string
		if err := rows.Scan(&app, &s.Name, &s.Description, &s.PartNumbers); err != nil {
			return nil, err
		}
		s.Appliance = model.ApplianceType(app)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *PostgresStore) PartsForSymptom(ctx context.Context, appliance model.ApplianceType, symptom string) ([]Part, error) {
	rows, err := p.DB.Query(ctx, `
        SELECT pt.ps_number, pt.name, pt.appliance_type, pt.brand, pt.manufacturer_number, pt.description,
               pt.price, pt.in_stock, pt.average_rating, pt.num_reviews, pt.url, pt.install_difficulty, pt.install_time, pt.install_video_url, pt.fixes_symptoms
        FROM parts pt
        JOIN symptom_parts sp ON sp.ps_number = pt.ps_number
        JOIN symptoms s ON s.id = sp.symptom_id
        WHERE s.appliance_type = $1 AND s.symptom ILIKE $2;
        `, string(appliance), "%"+symptom+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectParts(rows)
}

func (p *PostgresStore) RepairGuides(ctx context.Context, appliance model.ApplianceType, symptom string) ([]RepairGuide, error) {
	rows, err := p.DB.Query(ctx, `
        SELECT appliance_type, symptom, title, difficulty, steps
        FROM repair_guides
        WHERE appliance_type = $1 AND symptom ILIKE $2;
        `, string(appliance), "%"+symptom+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RepairGuide
	for rows.Next() {
		var g RepairGuide
		var app string
		if err := rows.Scan(&app, &g.Symptom, &g.Title, &g.Difficulty, &g.Steps); err != nil {
			return nil, err
		}
		g.Appliance = model.ApplianceType(app)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (p *PostgresStore) QnAByPart(ctx context.Context, ps string, limit int) ([]QnA, error) {
	rows, err := p.DB.Query(ctx, `
        SELECT ps_number, question, answer
        FROM part_qna
        WHERE upper(ps_number) = upper($1)
        LIMIT $2;
        `, ps, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QnA
	for rows.Next() {
		var q QnA
		if err := rows.Scan(&q.PSNumber, &q.Question, &q.Answer); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (p *PostgresStore) SearchQnA(ctx context.Context, ps string, embedding []float32, threshold float64, limit int) ([]QnA, error) {
	rows, err := p.DB.Query(ctx, `
        SELECT ps_number, question, answer, 1 - (embedding <=> $2::vector) AS score
        FROM part_qna
        WHERE upper(ps_number) = upper($1)
        ORDER BY embedding <=> $2::vector
        LIMIT $3;
        `, ps, vectorLiteral(embedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QnA
	for rows.Next() {
		var q QnA
		if err := rows.Scan(&q.PSNumber, &q.Question, &q.Answer, &q.Score); err != nil {
			return nil, err
		}
		if q.Score >= threshold {
			out = append(out, q)
		}
	}
	return out, rows.Err()
}

func (p *PostgresStore) RepairStoriesByPart(ctx context.Context, ps string, limit int) ([]RepairStory, error) {
	rows, err := p.DB.Query(ctx, `
        SELECT ps_number, title, story, difficulty
        FROM part_repair_stories
        WHERE upper(ps_number) = upper($1)
        LIMIT $2;
        `, ps, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RepairStory
	for rows.Next() {
		var s RepairStory
		if err := rows.Scan(&s.PSNumber, &s.Title, &s.Story, &s.Difficulty); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *PostgresStore) SearchRepairStories(ctx context.Context, ps string, embedding []float32, threshold float64, limit int) ([]RepairStory, error) {
	rows, err := p.DB.Query(ctx, `
        SELECT ps_number, title, story, difficulty, 1 - (embedding <=> $2::vector) AS score
        FROM part_repair_stories
        WHERE upper(ps_number) = upper($1)
        ORDER BY embedding <=> $2::vector
        LIMIT $3;
        `, ps, vectorLiteral(embedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RepairStory
	for rows.Next() {
		var s RepairStory
		if err := rows.Scan(&s.PSNumber, &s.Title, &s.Story, &s.Difficulty, &s.Score); err != nil {
			return nil, err
		}
		if s.Score >= threshold {
			out = append(out, s)
		}
	}
	return out, rows.Err()
}

func (p *PostgresStore) ReviewsByPart(ctx context.Context, ps string, limit int) ([]Review, error) {
	rows, err := p.DB.Query(ctx, `
        SELECT ps_number, rating, title, body
        FROM part_reviews
        WHERE upper(ps_number) = upper($1)
        LIMIT $2;
        `, ps, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.PSNumber, &r.Rating, &r.Title, &r.Body); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresStore) SearchReviews(ctx context.Context, ps string, embedding []float32, threshold float64, limit int) ([]Review, error) {
	rows, err := p.DB.Query(ctx, `
        SELECT ps_number, rating, title, body, 1 - (embedding <=> $2::vector) AS score
        FROM part_reviews
        WHERE upper(ps_number) = upper($1)
        ORDER BY embedding <=> $2::vector
        LIMIT $3;
        `, ps, vectorLiteral(embedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.PSNumber, &r.Rating, &r.Title, &r.Body, &r.Score); err != nil {
			return nil, err
		}
		if r.Score >= threshold {
			out = append(out, r)
		}
	}
	return out, rows.Err()
}

func (p *PostgresStore) SearchPartsSemantic(ctx context.Context, embedding []float32, threshold float64, limit int) ([]ScoredPart, error) {
	rows, err := p.DB.Query(ctx, `
        SELECT ps_number, name, appliance_type, brand, manufacturer_number, description,
               price, in_stock, average_rating, num_reviews, url, install_difficulty, install_time, install_video_url, fixes_symptoms,
               1 - (embedding <=> $1::vector) AS score
        FROM parts
        ORDER BY embedding <=> $1::vector
        LIMIT $2;
        `, vectorLiteral(embedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScoredPart
	for rows.Next() {
		var sp ScoredPart
		var appliance string
		if err := rows.Scan(&sp.PSNumber, &sp.Name, &appliance, &sp.Brand, &sp.ManufacturerNumber,
			&sp.Description, &sp.Price, &sp.InStock, &sp.AverageRating, &sp.NumReviews, &sp.URL,
			&sp.InstallDifficulty, &sp.InstallTime, &sp.InstallVideoURL, &sp.FixesSymptoms, &sp.Score); err != nil {
			return nil, err
		}
		sp.Appliance = model.ApplianceType(appliance)
		if sp.Score >= threshold {
			out = append(out, sp)
		}
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPart(row rowScanner) (*Part, error) {
	var part Part
	var appliance string
	err := row.Scan(&part.PSNumber, &part.Name, &appliance, &part.Brand, &part.ManufacturerNumber,
		&part.Description, &part.Price, &part.InStock, &part.AverageRating, &part.NumReviews, &part.URL,
		&part.InstallDifficulty, &part.InstallTime, &part.InstallVideoURL, &part.FixesSymptoms)
	if err != nil {
		return nil, err
	}
	part.Appliance = model.ApplianceType(appliance)
	return &part, nil
}

func collectParts(rows pgx.Rows) ([]Part, error) {
	var out []Part
	for rows.Next() {
		part, err := scanPart(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *part)
	}
	return out, rows.Err()
}

func collectModels(rows pgx.Rows) ([]ApplianceModel, error) {
	var out []ApplianceModel
	for rows.Next() {
		var m ApplianceModel
		var appliance string
		if err := rows.Scan(&m.Number, &m.Brand, &appliance, &m.Name); err != nil {
			return nil, err
		}
		m.Appliance = model.ApplianceType(appliance)
		out = append(out, m)
	}
	return out, rows.Err()
}

// vectorLiteral renders an embedding as a pgvector text literal.
func vectorLiteral(embedding []float32) string {
	jsonEmbed, _ := json.Marshal(embedding)
	return fmt.Sprintf("[%s]", strings.Trim(string(jsonEmbed), "[]"))
}
