package repository

import (
	"context"
	"fmt"

	"github.com/Clark-Hu/foodgram/internal/domain"
)

// FollowsRepository stores author subscriptions.
type FollowsRepository struct {
	db DB
}

// Create subscribes userID to authorID. An existing subscription yields ErrConflict.
func (r *FollowsRepository) Create(ctx context.Context, userID, authorID int64) error {
	_, err := r.db.Exec(ctx, `INSERT INTO follows (user_id, author_id) VALUES ($1, $2)`, userID, authorID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// Delete removes a subscription, returning ErrNotFound when there was none.
func (r *FollowsRepository) Delete(ctx context.Context, userID, authorID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM follows WHERE user_id = $1 AND author_id = $2`, userID, authorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Subscribed returns the subset of authorIDs that userID follows.
func (r *FollowsRepository) Subscribed(ctx context.Context, userID int64, authorIDs []int64) (map[int64]bool, error) {
	if len(authorIDs) == 0 {
		return map[int64]bool{}, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT author_id FROM follows WHERE user_id = $1 AND author_id = ANY($2)`, userID, authorIDs)
	if err != nil {
		return nil, err
	}
	return idSet(rows)
}

// ListAuthors returns the authors followed by userID, most recent subscription first.
func (r *FollowsRepository) ListAuthors(ctx context.Context, userID int64, page Page) ([]domain.User, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM follows WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count follows: %w", err)
	}

	rows, err := r.db.Query(ctx, `
        SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash, u.role, u.created_at
        FROM follows f
        JOIN users u ON u.id = f.author_id
        WHERE f.user_id = $1
        ORDER BY f.id DESC
        LIMIT $2 OFFSET $3
    `, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	authors, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return authors, total, nil
}
