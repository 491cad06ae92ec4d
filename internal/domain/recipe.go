package domain

import "time"

// Tag groups recipes (breakfast, dinner, ...).
type Tag struct {
	ID    int64
	Name  string
	Color string
	Slug  string
}

// Ingredient is identified by the (Name, MeasurementUnit) pair.
type Ingredient struct {
	ID              int64
	Name            string
	MeasurementUnit string
}

// RecipeIngredient is the quantity of one ingredient required by one recipe.
type RecipeIngredient struct {
	Ingredient
	Amount int64
}

// Recipe is a published recipe with its tags and ingredient lines.
type Recipe struct {
	ID          int64
	Author      User
	Name        string
	Image       string
	Text        string
	CookingTime int
	PubDate     time.Time
	Tags        []Tag
	Ingredients []RecipeIngredient
}

// RecipeSummary is the short form used in favorites, carts and subscriptions.
type RecipeSummary struct {
	ID          int64
	Name        string
	Image       string
	CookingTime int
}

// Summary returns the short form of r.
func (r Recipe) Summary() RecipeSummary {
	return RecipeSummary{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// IngredientLine is the flat (name, unit, amount) view of a recipe line used
// when building shopping lists.
type IngredientLine struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}
