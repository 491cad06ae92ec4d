package httpserver

import (
	"context"

	"github.com/Clark-Hu/foodgram/internal/domain"
)

type userResponse struct {
	Email        string `json:"email"`
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type userCreatedResponse struct {
	Email     string `json:"email"`
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type subscriptionResponse struct {
	userResponse
	Recipes      []recipeShortResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

type tagResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type ingredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type recipeIngredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int64  `json:"amount"`
}

type recipeResponse struct {
	ID               int64                      `json:"id"`
	Tags             []tagResponse              `json:"tags"`
	Author           userResponse               `json:"author"`
	Ingredients      []recipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

type recipeShortResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// viewerState holds the caller's relations to the entities of one response.
// The zero value describes an anonymous caller.
type viewerState struct {
	subscribed map[int64]bool
	favorited  map[int64]bool
	inCart     map[int64]bool
}

func isSubscribed(authorID int64, v viewerState) bool {
	return v.subscribed[authorID]
}

func isFavorited(recipeID int64, v viewerState) bool {
	return v.favorited[recipeID]
}

func isInShoppingCart(recipeID int64, v viewerState) bool {
	return v.inCart[recipeID]
}

// loadViewerState resolves the caller's subscriptions to authorIDs and
// favorites and cart entries among recipeIDs.
func (s *Server) loadViewerState(ctx context.Context, authorIDs, recipeIDs []int64) (viewerState, error) {
	id := viewerID(ctx)
	if id == nil {
		return viewerState{}, nil
	}
	var (
		state viewerState
		err   error
	)
	if state.subscribed, err = s.repo.Follows.Subscribed(ctx, *id, authorIDs); err != nil {
		return viewerState{}, err
	}
	if state.favorited, err = s.repo.Favorites.Contains(ctx, *id, recipeIDs); err != nil {
		return viewerState{}, err
	}
	if state.inCart, err = s.repo.Carts.Contains(ctx, *id, recipeIDs); err != nil {
		return viewerState{}, err
	}
	return state, nil
}

func toUserResponse(u domain.User, v viewerState) userResponse {
	return userResponse{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: isSubscribed(u.ID, v),
	}
}

func toTagResponse(t domain.Tag) tagResponse {
	return tagResponse{ID: t.ID, Name: t.Name, Color: "#" + t.Color, Slug: t.Slug}
}

func toIngredientResponse(i domain.Ingredient) ingredientResponse {
	return ingredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func (s *Server) toRecipeShort(r domain.RecipeSummary) recipeShortResponse {
	return recipeShortResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       s.media.URLFor(r.Image),
		CookingTime: r.CookingTime,
	}
}

func (s *Server) toRecipeResponse(r domain.Recipe, v viewerState) recipeResponse {
	tags := make([]tagResponse, 0, len(r.Tags))
	for _, t := range r.Tags {
		tags = append(tags, toTagResponse(t))
	}
	ingredients := make([]recipeIngredientResponse, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		ingredients = append(ingredients, recipeIngredientResponse{
			ID:              ing.ID,
			Name:            ing.Name,
			MeasurementUnit: ing.MeasurementUnit,
			Amount:          ing.Amount,
		})
	}
	return recipeResponse{
		ID:               r.ID,
		Tags:             tags,
		Author:           toUserResponse(r.Author, v),
		Ingredients:      ingredients,
		IsFavorited:      isFavorited(r.ID, v),
		IsInShoppingCart: isInShoppingCart(r.ID, v),
		Name:             r.Name,
		Image:            s.media.URLFor(r.Image),
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
}
