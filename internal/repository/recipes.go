package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/foodgram/internal/domain"
)

// RecipesRepository provides persistence helpers for recipes and their
// tag and ingredient relations.
type RecipesRepository struct {
	db DB
}

const recipeColumns = `
    r.id,
    r.name,
    r.image,
    r.text,
    r.cooking_time,
    r.pub_date,
    u.id,
    u.email,
    u.username,
    u.first_name,
    u.last_name,
    u.role,
    u.created_at
`

// IngredientAmount is one requested ingredient line of a recipe write.
type IngredientAmount struct {
	IngredientID int64
	Amount       int64
}

// RecipeWriteParams carries the full state of a recipe for create and update.
type RecipeWriteParams struct {
	AuthorID    int64
	Name        string
	Image       string
	Text        string
	CookingTime int
	TagIDs      []int64
	Ingredients []IngredientAmount
}

// RecipeListFilters narrows recipe listings. Nil pointers disable a filter.
type RecipeListFilters struct {
	TagSlugs    []string
	AuthorID    *int64
	FavoritedBy *int64
	InCartOf    *int64
	Page        Page
}

// Create inserts the recipe with its tags and ingredient lines in one transaction.
func (r *RecipesRepository) Create(ctx context.Context, params RecipeWriteParams) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx, `
        INSERT INTO recipes (author_id, name, image, text, cooking_time)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id
    `, params.AuthorID, params.Name, params.Image, params.Text, params.CookingTime).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert recipe: %w", err)
	}

	if err := writeRelations(ctx, tx, id, params); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// Update replaces the recipe fields, tags and ingredient lines.
func (r *RecipesRepository) Update(ctx context.Context, id int64, params RecipeWriteParams) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
        UPDATE recipes
        SET name = $2, image = $3, text = $4, cooking_time = $5
        WHERE id = $1
    `, id, params.Name, params.Image, params.Text, params.CookingTime)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM recipe_tags WHERE recipe_id = $1`, id); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, id); err != nil {
		return fmt.Errorf("clear ingredients: %w", err)
	}
	if err := writeRelations(ctx, tx, id, params); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func writeRelations(ctx context.Context, tx pgx.Tx, recipeID int64, params RecipeWriteParams) error {
	if len(params.TagIDs) > 0 {
		_, err := tx.Exec(ctx, `
            INSERT INTO recipe_tags (recipe_id, tag_id)
            SELECT $1, unnest($2::bigint[])
            ON CONFLICT DO NOTHING
        `, recipeID, params.TagIDs)
		if err != nil {
			return fmt.Errorf("insert tags: %w", err)
		}
	}
	for _, line := range params.Ingredients {
		_, err := tx.Exec(ctx, `
            INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount)
            VALUES ($1,$2,$3)
        `, recipeID, line.IngredientID, line.Amount)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return fmt.Errorf("insert ingredient %d: %w", line.IngredientID, err)
		}
	}
	return nil
}

// Delete removes a recipe; relations cascade.
func (r *RecipesRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches a recipe with author, tags and ingredients.
func (r *RecipesRepository) GetByID(ctx context.Context, id int64) (domain.Recipe, error) {
	query := fmt.Sprintf(`SELECT %s FROM recipes r JOIN users u ON u.id = r.author_id WHERE r.id = $1`, recipeColumns)
	recipe, err := scanRecipe(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Recipe{}, notFound(err)
	}
	recipes := []domain.Recipe{recipe}
	if err := r.loadRelations(ctx, recipes); err != nil {
		return domain.Recipe{}, err
	}
	return recipes[0], nil
}

// GetSummary fetches the short form of a recipe.
func (r *RecipesRepository) GetSummary(ctx context.Context, id int64) (domain.RecipeSummary, error) {
	var s domain.RecipeSummary
	err := r.db.QueryRow(ctx, `SELECT id, name, image, cooking_time FROM recipes WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Image, &s.CookingTime)
	if err != nil {
		return domain.RecipeSummary{}, notFound(err)
	}
	return s, nil
}

// ExistsByAuthorAndName reports whether the author already published a recipe with this name.
func (r *RecipesRepository) ExistsByAuthorAndName(ctx context.Context, authorID int64, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM recipes WHERE author_id = $1 AND name = $2)`, authorID, name).Scan(&exists)
	return exists, err
}

// List returns recipes matching filters, newest first, and the total match count.
func (r *RecipesRepository) List(ctx context.Context, filters RecipeListFilters) ([]domain.Recipe, int64, error) {
	where := make([]string, 0)
	args := make([]any, 0)
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filters.TagSlugs) > 0 {
		where = append(where, fmt.Sprintf(`EXISTS (
            SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
            WHERE rt.recipe_id = r.id AND t.slug = ANY(%s))`, arg(filters.TagSlugs)))
	}
	if filters.AuthorID != nil {
		where = append(where, fmt.Sprintf("r.author_id = %s", arg(*filters.AuthorID)))
	}
	if filters.FavoritedBy != nil {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = %s)", arg(*filters.FavoritedBy)))
	}
	if filters.InCartOf != nil {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM carts c WHERE c.recipe_id = r.id AND c.user_id = %s)", arg(*filters.InCartOf)))
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	countSQL := "SELECT COUNT(*) FROM recipes r" + whereSQL
	if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(recipeColumns)
	queryBuilder.WriteString(" FROM recipes r JOIN users u ON u.id = r.author_id")
	queryBuilder.WriteString(whereSQL)
	queryBuilder.WriteString(" ORDER BY r.pub_date DESC, r.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT %s OFFSET %s", arg(filters.Page.Limit), arg(filters.Page.Offset)))

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]domain.Recipe, 0)
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	if err := r.loadRelations(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// SummariesByAuthor lists an author's recipes newest first; limit <= 0 means all.
func (r *RecipesRepository) SummariesByAuthor(ctx context.Context, authorID int64, limit int) ([]domain.RecipeSummary, error) {
	query := `SELECT id, name, image, cooking_time FROM recipes WHERE author_id = $1 ORDER BY pub_date DESC, id DESC`
	args := []any{authorID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.RecipeSummary, 0)
	for rows.Next() {
		var s domain.RecipeSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Image, &s.CookingTime); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// CountByAuthor returns how many recipes each author published.
func (r *RecipesRepository) CountByAuthor(ctx context.Context, authorIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT author_id, COUNT(*) FROM recipes WHERE author_id = ANY($1) GROUP BY author_id`, authorIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// ListIngredientLines returns the flat ingredient lines of a recipe.
func (r *RecipesRepository) ListIngredientLines(ctx context.Context, recipeID int64) ([]domain.IngredientLine, error) {
	rows, err := r.db.Query(ctx, `
        SELECT i.name, i.measurement_unit, ri.amount
        FROM recipe_ingredients ri
        JOIN ingredients i ON i.id = ri.ingredient_id
        WHERE ri.recipe_id = $1
        ORDER BY ri.id DESC
    `, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.IngredientLine, 0)
	for rows.Next() {
		var l domain.IngredientLine
		if err := rows.Scan(&l.Name, &l.MeasurementUnit, &l.Amount); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *RecipesRepository) loadRelations(ctx context.Context, recipes []domain.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	ids := make([]int64, len(recipes))
	pos := make(map[int64]int, len(recipes))
	for i, rec := range recipes {
		ids[i] = rec.ID
		pos[rec.ID] = i
		recipes[i].Tags = make([]domain.Tag, 0)
		recipes[i].Ingredients = make([]domain.RecipeIngredient, 0)
	}

	tagRows, err := r.db.Query(ctx, `
        SELECT rt.recipe_id, t.id, t.name, t.color, t.slug
        FROM recipe_tags rt
        JOIN tags t ON t.id = rt.tag_id
        WHERE rt.recipe_id = ANY($1)
        ORDER BY t.name
    `, ids)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	for tagRows.Next() {
		var recipeID int64
		var t domain.Tag
		if err := tagRows.Scan(&recipeID, &t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			tagRows.Close()
			return err
		}
		recipes[pos[recipeID]].Tags = append(recipes[pos[recipeID]].Tags, t)
	}
	tagRows.Close()
	if err := tagRows.Err(); err != nil {
		return err
	}

	ingRows, err := r.db.Query(ctx, `
        SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
        FROM recipe_ingredients ri
        JOIN ingredients i ON i.id = ri.ingredient_id
        WHERE ri.recipe_id = ANY($1)
        ORDER BY ri.id
    `, ids)
	if err != nil {
		return fmt.Errorf("load ingredients: %w", err)
	}
	defer ingRows.Close()
	for ingRows.Next() {
		var recipeID int64
		var ri domain.RecipeIngredient
		if err := ingRows.Scan(&recipeID, &ri.ID, &ri.Name, &ri.MeasurementUnit, &ri.Amount); err != nil {
			return err
		}
		recipes[pos[recipeID]].Ingredients = append(recipes[pos[recipeID]].Ingredients, ri)
	}
	return ingRows.Err()
}

func scanRecipe(row pgx.Row) (domain.Recipe, error) {
	var rec domain.Recipe
	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Image,
		&rec.Text,
		&rec.CookingTime,
		&rec.PubDate,
		&rec.Author.ID,
		&rec.Author.Email,
		&rec.Author.Username,
		&rec.Author.FirstName,
		&rec.Author.LastName,
		&rec.Author.Role,
		&rec.Author.CreatedAt,
	)
	return rec, err
}
