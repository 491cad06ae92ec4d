package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/foodgram/internal/domain"
)

func newMockRepository(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return NewWithDB(mock), mock
}

func TestUsersRepository_GetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs(int64(7)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Users.GetByID(context.Background(), 7)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUsersRepository_CreateConflict(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("a@example.com", "a", "A", "B", "hash", domain.RoleUser).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Users.Create(context.Background(), UserCreateParams{
		Email: "a@example.com", Username: "a", FirstName: "A", LastName: "B", PasswordHash: "hash",
	})
	require.ErrorIs(t, err, ErrConflict)
}

func TestFollowsRepository_DeleteMissing(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM follows`)).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Follows.Delete(context.Background(), 1, 2)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRelationRepository_RecipeIDsKeepsOrder(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT recipe_id FROM carts WHERE user_id = $1 ORDER BY id DESC`)).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"recipe_id"}).AddRow(int64(9)).AddRow(int64(4)))

	ids, err := repo.Carts.RecipeIDs(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, []int64{9, 4}, ids)
}

func TestRelationRepository_ContainsEmptyInput(t *testing.T) {
	repo, _ := newMockRepository(t)

	got, err := repo.Favorites.Contains(context.Background(), 1, nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRelationRepository_AddReportsCreation(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO favorites`)).
		WithArgs(int64(1), int64(5)).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	created, err := repo.Favorites.Add(context.Background(), 1, 5)
	require.NoError(t, err)
	require.False(t, created)
}

func TestIngredientsRepository_SearchEscapesPattern(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE lower(name) LIKE $1`)).
		WithArgs(`50\%\_\_%`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "measurement_unit"}))

	items, err := repo.Ingredients.Search(context.Background(), " 50%__ ")
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestRecipesRepository_ListIngredientLines(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM recipe_ingredients ri`)).
		WithArgs(int64(11)).
		WillReturnRows(pgxmock.NewRows([]string{"name", "measurement_unit", "amount"}).
			AddRow("flour", "g", int64(200)).
			AddRow("milk", "ml", int64(300)))

	lines, err := repo.Recipes.ListIngredientLines(context.Background(), 11)
	require.NoError(t, err)
	require.Equal(t, []domain.IngredientLine{
		{Name: "flour", MeasurementUnit: "g", Amount: 200},
		{Name: "milk", MeasurementUnit: "ml", Amount: 300},
	}, lines)
}

func TestShoppingSource_PropagatesErrors(t *testing.T) {
	repo, mock := newMockRepository(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`)).
		WithArgs(int64(1)).
		WillReturnError(boom)

	_, err := NewShoppingSource(repo).UserExists(context.Background(), 1)
	require.ErrorIs(t, err, boom)
}
