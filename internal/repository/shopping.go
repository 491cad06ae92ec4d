package repository

import (
	"context"

	"github.com/Clark-Hu/foodgram/internal/domain"
)

// ShoppingSource exposes the cart and recipe tables in the shape the
// shopping list aggregator reads.
type ShoppingSource struct {
	repo *Repository
}

// NewShoppingSource wraps the repository for shopping list aggregation.
func NewShoppingSource(repo *Repository) *ShoppingSource {
	return &ShoppingSource{repo: repo}
}

// UserExists reports whether the account is registered.
func (s *ShoppingSource) UserExists(ctx context.Context, userID int64) (bool, error) {
	return s.repo.Users.Exists(ctx, userID)
}

// ListCartRecipeIDs returns the user's cart, most recent entry first.
func (s *ShoppingSource) ListCartRecipeIDs(ctx context.Context, userID int64) ([]int64, error) {
	return s.repo.Carts.RecipeIDs(ctx, userID)
}

// ListIngredientLines returns the ingredient lines of one recipe.
func (s *ShoppingSource) ListIngredientLines(ctx context.Context, recipeID int64) ([]domain.IngredientLine, error) {
	return s.repo.Recipes.ListIngredientLines(ctx, recipeID)
}
