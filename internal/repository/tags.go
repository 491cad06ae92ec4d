package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/foodgram/internal/domain"
)

// TagsRepository provides read access to tags plus fixture loading.
type TagsRepository struct {
	db DB
}

// List returns all tags ordered by name.
func (r *TagsRepository) List(ctx context.Context) ([]domain.Tag, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, color, slug FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectTags(rows)
}

// GetByID fetches a tag.
func (r *TagsRepository) GetByID(ctx context.Context, id int64) (domain.Tag, error) {
	var t domain.Tag
	err := r.db.QueryRow(ctx, `SELECT id, name, color, slug FROM tags WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Color, &t.Slug)
	if err != nil {
		return domain.Tag{}, notFound(err)
	}
	return t, nil
}

// CountExisting returns how many of ids refer to existing tags.
func (r *TagsRepository) CountExisting(ctx context.Context, ids []int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tags WHERE id = ANY($1)`, ids).Scan(&n)
	return n, err
}

// GetOrCreate inserts the tag unless one with the same name, color and slug exists.
// It reports whether a row was created.
func (r *TagsRepository) GetOrCreate(ctx context.Context, tag domain.Tag) (bool, error) {
	tagResult, err := r.db.Exec(ctx, `
        INSERT INTO tags (name, color, slug)
        VALUES ($1, $2, $3)
        ON CONFLICT DO NOTHING
    `, tag.Name, tag.Color, tag.Slug)
	if err != nil {
		return false, err
	}
	return tagResult.RowsAffected() > 0, nil
}

func collectTags(rows pgx.Rows) ([]domain.Tag, error) {
	defer rows.Close()
	tags := make([]domain.Tag, 0)
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
