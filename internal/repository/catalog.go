package repository

import (
	"context"

	"github.com/Clark-Hu/foodgram/internal/domain"
)

// Catalog exposes get-or-create writes for fixture loading.
type Catalog struct {
	repo *Repository
}

// NewCatalog wraps the repository for fixture loading.
func NewCatalog(repo *Repository) *Catalog {
	return &Catalog{repo: repo}
}

func (c *Catalog) CreateTag(ctx context.Context, tag domain.Tag) (bool, error) {
	return c.repo.Tags.GetOrCreate(ctx, tag)
}

func (c *Catalog) CreateIngredient(ctx context.Context, name, unit string) (bool, error) {
	return c.repo.Ingredients.GetOrCreate(ctx, name, unit)
}
