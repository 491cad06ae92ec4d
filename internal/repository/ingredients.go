package repository

import (
	"context"
	"strings"

	"github.com/Clark-Hu/foodgram/internal/domain"
)

// IngredientsRepository provides read access to the ingredient catalogue.
type IngredientsRepository struct {
	db DB
}

// Search lists ingredients whose name starts with prefix (case-insensitive).
// An empty prefix lists everything.
func (r *IngredientsRepository) Search(ctx context.Context, prefix string) ([]domain.Ingredient, error) {
	pattern := escapeLike(strings.ToLower(strings.TrimSpace(prefix))) + "%"
	rows, err := r.db.Query(ctx, `
        SELECT id, name, measurement_unit
        FROM ingredients
        WHERE lower(name) LIKE $1
        ORDER BY name, id
    `, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Ingredient, 0)
	for rows.Next() {
		var ing domain.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit); err != nil {
			return nil, err
		}
		items = append(items, ing)
	}
	return items, rows.Err()
}

// GetByID fetches an ingredient.
func (r *IngredientsRepository) GetByID(ctx context.Context, id int64) (domain.Ingredient, error) {
	var ing domain.Ingredient
	err := r.db.QueryRow(ctx, `SELECT id, name, measurement_unit FROM ingredients WHERE id = $1`, id).
		Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit)
	if err != nil {
		return domain.Ingredient{}, notFound(err)
	}
	return ing, nil
}

// ExistingIDs returns the subset of ids that refer to existing ingredients.
func (r *IngredientsRepository) ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	if len(ids) == 0 {
		return map[int64]bool{}, nil
	}
	rows, err := r.db.Query(ctx, `SELECT id FROM ingredients WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return idSet(rows)
}

// GetOrCreate inserts the (name, unit) pair unless it exists and reports whether it was created.
func (r *IngredientsRepository) GetOrCreate(ctx context.Context, name, unit string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
        INSERT INTO ingredients (name, measurement_unit)
        VALUES ($1, $2)
        ON CONFLICT (name, measurement_unit) DO NOTHING
    `, name, unit)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
