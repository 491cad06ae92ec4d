package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Clark-Hu/foodgram/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// ErrConflict indicates a uniqueness constraint rejected the write.
var ErrConflict = errors.New("repository: conflict")

// DB is the part of *pgxpool.Pool the repositories use.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Page selects a window of a listing.
type Page struct {
	Limit  int
	Offset int
}

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Users       *UsersRepository
	Follows     *FollowsRepository
	Tags        *TagsRepository
	Ingredients *IngredientsRepository
	Recipes     *RecipesRepository
	Favorites   *RelationRepository
	Carts       *RelationRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithDB(st.Pool())
}

// NewWithDB allows constructing repositories directly from a pool or a mock.
func NewWithDB(db DB) *Repository {
	return &Repository{
		Users:       &UsersRepository{db: db},
		Follows:     &FollowsRepository{db: db},
		Tags:        &TagsRepository{db: db},
		Ingredients: &IngredientsRepository{db: db},
		Recipes:     &RecipesRepository{db: db},
		Favorites:   &RelationRepository{db: db, table: "favorites"},
		Carts:       &RelationRepository{db: db, table: "carts"},
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func collectIDs(rows pgx.Rows) ([]int64, error) {
	defer rows.Close()
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func idSet(rows pgx.Rows) (map[int64]bool, error) {
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
