package repository

import (
	"context"
	"fmt"
)

// RelationRepository manages a (user, recipe) membership table such as
// favorites or carts. Rows carry no payload besides the pair.
type RelationRepository struct {
	db    DB
	table string
}

// Add inserts the pair if missing and reports whether it was created.
func (r *RelationRepository) Add(ctx context.Context, userID, recipeID int64) (bool, error) {
	query := fmt.Sprintf(`INSERT INTO %s (user_id, recipe_id) VALUES ($1, $2) ON CONFLICT (user_id, recipe_id) DO NOTHING`, r.table)
	tag, err := r.db.Exec(ctx, query, userID, recipeID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Remove deletes the pair, returning ErrNotFound when it did not exist.
func (r *RelationRepository) Remove(ctx context.Context, userID, recipeID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND recipe_id = $2`, r.table)
	tag, err := r.db.Exec(ctx, query, userID, recipeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Contains returns the subset of recipeIDs related to userID.
func (r *RelationRepository) Contains(ctx context.Context, userID int64, recipeIDs []int64) (map[int64]bool, error) {
	if len(recipeIDs) == 0 {
		return map[int64]bool{}, nil
	}
	query := fmt.Sprintf(`SELECT recipe_id FROM %s WHERE user_id = $1 AND recipe_id = ANY($2)`, r.table)
	rows, err := r.db.Query(ctx, query, userID, recipeIDs)
	if err != nil {
		return nil, err
	}
	return idSet(rows)
}

// RecipeIDs lists the recipes related to userID, most recently added first.
func (r *RelationRepository) RecipeIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := fmt.Sprintf(`SELECT recipe_id FROM %s WHERE user_id = $1 ORDER BY id DESC`, r.table)
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}
