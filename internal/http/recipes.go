package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Clark-Hu/foodgram/internal/domain"
	"github.com/Clark-Hu/foodgram/internal/media"
	"github.com/Clark-Hu/foodgram/internal/repository"
	"github.com/Clark-Hu/foodgram/internal/validation"
)

type ingredientAmountRequest struct {
	ID     int64 `json:"id" validate:"required"`
	Amount int64 `json:"amount" validate:"min=1,max=32000"`
}

type recipeWriteRequest struct {
	Ingredients []ingredientAmountRequest `json:"ingredients" validate:"min=1,dive"`
	Tags        []int64                   `json:"tags" validate:"min=1,unique"`
	Image       string                    `json:"image"`
	Name        string                    `json:"name" validate:"required,max=200"`
	Text        string                    `json:"text" validate:"required"`
	CookingTime int                       `json:"cooking_time" validate:"min=1,max=32000"`
}

// recipePatchRequest leaves absent fields untouched.
type recipePatchRequest struct {
	Ingredients *[]ingredientAmountRequest `json:"ingredients"`
	Tags        *[]int64                   `json:"tags"`
	Image       *string                    `json:"image"`
	Name        *string                    `json:"name"`
	Text        *string                    `json:"text"`
	CookingTime *int                       `json:"cooking_time"`
}

func buildRecipeFilters(query url.Values, viewer *int64) (repository.RecipeListFilters, error) {
	var filters repository.RecipeListFilters

	for _, slug := range query["tags"] {
		if slug = strings.TrimSpace(slug); slug != "" {
			filters.TagSlugs = append(filters.TagSlugs, slug)
		}
	}
	if val := strings.TrimSpace(query.Get("author")); val != "" {
		author, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return filters, fmt.Errorf("invalid author value")
		}
		filters.AuthorID = &author
	}
	favorited, err := parseFlag(query.Get("is_favorited"))
	if err != nil {
		return filters, fmt.Errorf("invalid is_favorited value")
	}
	inCart, err := parseFlag(query.Get("is_in_shopping_cart"))
	if err != nil {
		return filters, fmt.Errorf("invalid is_in_shopping_cart value")
	}
	if viewer != nil {
		if favorited {
			filters.FavoritedBy = viewer
		}
		if inCart {
			filters.InCartOf = viewer
		}
	}
	return filters, nil
}

func parseFlag(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "false":
		return false, nil
	case "1", "true":
		return true, nil
	default:
		return false, fmt.Errorf("invalid flag %q", raw)
	}
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	p, err := s.parsePagination(query)
	if err != nil {
		s.respondPaginationError(w, err)
		return
	}
	filters, err := buildRecipeFilters(query, viewerID(r.Context()))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	filters.Page = p.window()

	recipes, total, err := s.repo.Recipes.List(r.Context(), filters)
	if err != nil {
		s.respondStoreError(w, err, "list recipes")
		return
	}
	state, err := s.viewerStateForRecipes(r.Context(), recipes...)
	if err != nil {
		s.respondStoreError(w, err, "list recipes")
		return
	}

	results := make([]recipeResponse, 0, len(recipes))
	for _, rec := range recipes {
		results = append(results, s.toRecipeResponse(rec, state))
	}
	page, ok := buildPage(r, p, total, results)
	if !ok {
		s.respondPaginationError(w, errInvalidPage)
		return
	}
	s.respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.respondNotFound(w)
		return
	}
	s.respondRecipe(w, r, id, http.StatusOK)
}

func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	v, _ := viewerFrom(r.Context())

	var req recipeWriteRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if !s.validate(w, &req) {
		return
	}
	if strings.TrimSpace(req.Image) == "" {
		s.respondValidation(w, validation.Errors{"image": "This field is required."})
		return
	}
	fields, err := s.checkRecipeReferences(r.Context(), req)
	if err != nil {
		s.respondStoreError(w, err, "create recipe")
		return
	}
	exists, err := s.repo.Recipes.ExistsByAuthorAndName(r.Context(), v.user.ID, req.Name)
	if err != nil {
		s.respondStoreError(w, err, "create recipe")
		return
	}
	if exists {
		fields["name"] = "You already have a recipe with this name."
	}
	if len(fields) > 0 {
		s.respondValidation(w, fields)
		return
	}

	image, err := s.media.SaveDataURI(req.Image)
	if err != nil {
		s.respondImageError(w, err)
		return
	}

	id, err := s.repo.Recipes.Create(r.Context(), toWriteParams(v.user.ID, image, req))
	if err != nil {
		_ = s.media.Remove(image)
		if errors.Is(err, repository.ErrConflict) {
			s.respondValidation(w, validation.Errors{"ingredients": "Ingredients must not repeat."})
			return
		}
		s.respondStoreError(w, err, "create recipe")
		return
	}
	s.logger.Info().Int64("recipe_id", id).Int64("author_id", v.user.ID).Msg("recipe created")
	s.respondRecipe(w, r, id, http.StatusCreated)
}

func (s *Server) handleUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	current, ok := s.loadEditableRecipe(w, r)
	if !ok {
		return
	}

	var patch recipePatchRequest
	if err := decodeJSONBody(w, r, &patch); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	req := mergeRecipePatch(current, patch)
	if !s.validate(w, &req) {
		return
	}
	fields, err := s.checkRecipeReferences(r.Context(), req)
	if err != nil {
		s.respondStoreError(w, err, "update recipe")
		return
	}
	if len(fields) > 0 {
		s.respondValidation(w, fields)
		return
	}

	image := current.Image
	if patch.Image != nil && strings.TrimSpace(*patch.Image) != "" {
		image, err = s.media.SaveDataURI(*patch.Image)
		if err != nil {
			s.respondImageError(w, err)
			return
		}
	}

	if err := s.repo.Recipes.Update(r.Context(), current.ID, toWriteParams(current.Author.ID, image, req)); err != nil {
		if image != current.Image {
			_ = s.media.Remove(image)
		}
		if errors.Is(err, repository.ErrConflict) {
			s.respondValidation(w, validation.Errors{"ingredients": "Ingredients must not repeat."})
			return
		}
		s.respondStoreError(w, err, "update recipe")
		return
	}
	if image != current.Image {
		if err := s.media.Remove(current.Image); err != nil {
			s.logger.Warn().Err(err).Str("image", current.Image).Msg("remove replaced image failed")
		}
	}
	s.respondRecipe(w, r, current.ID, http.StatusOK)
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	current, ok := s.loadEditableRecipe(w, r)
	if !ok {
		return
	}
	if err := s.repo.Recipes.Delete(r.Context(), current.ID); err != nil {
		s.respondStoreError(w, err, "delete recipe")
		return
	}
	if err := s.media.Remove(current.Image); err != nil {
		s.logger.Warn().Err(err).Str("image", current.Image).Msg("remove recipe image failed")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	s.addRelation(w, r, s.repo.Favorites)
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	s.removeRelation(w, r, s.repo.Favorites)
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	s.addRelation(w, r, s.repo.Carts)
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	s.removeRelation(w, r, s.repo.Carts)
}

// addRelation is get-or-create: an existing entry still answers 201.
func (s *Server) addRelation(w http.ResponseWriter, r *http.Request, rel *repository.RelationRepository) {
	v, _ := viewerFrom(r.Context())
	id, ok := idParam(r)
	if !ok {
		s.respondNotFound(w)
		return
	}
	summary, err := s.repo.Recipes.GetSummary(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err, "fetch recipe")
		return
	}
	if _, err := rel.Add(r.Context(), v.user.ID, id); err != nil {
		s.respondStoreError(w, err, "add recipe")
		return
	}
	s.respondJSON(w, http.StatusCreated, s.toRecipeShort(summary))
}

func (s *Server) removeRelation(w http.ResponseWriter, r *http.Request, rel *repository.RelationRepository) {
	v, _ := viewerFrom(r.Context())
	id, ok := idParam(r)
	if !ok {
		s.respondNotFound(w)
		return
	}
	if _, err := s.repo.Recipes.GetSummary(r.Context(), id); err != nil {
		s.respondStoreError(w, err, "fetch recipe")
		return
	}
	if err := rel.Remove(r.Context(), v.user.ID, id); err != nil {
		s.respondStoreError(w, err, "remove recipe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondRecipe(w http.ResponseWriter, r *http.Request, id int64, status int) {
	recipe, err := s.repo.Recipes.GetByID(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err, "fetch recipe")
		return
	}
	state, err := s.viewerStateForRecipes(r.Context(), recipe)
	if err != nil {
		s.respondStoreError(w, err, "fetch recipe")
		return
	}
	s.respondJSON(w, status, s.toRecipeResponse(recipe, state))
}

// loadEditableRecipe fetches the {id} recipe and checks the caller is its author or an admin.
func (s *Server) loadEditableRecipe(w http.ResponseWriter, r *http.Request) (domain.Recipe, bool) {
	v, _ := viewerFrom(r.Context())
	id, ok := idParam(r)
	if !ok {
		s.respondNotFound(w)
		return domain.Recipe{}, false
	}
	recipe, err := s.repo.Recipes.GetByID(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err, "fetch recipe")
		return domain.Recipe{}, false
	}
	if recipe.Author.ID != v.user.ID && !v.user.IsAdmin() {
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", "You do not have permission to perform this action")
		return domain.Recipe{}, false
	}
	return recipe, true
}

func (s *Server) viewerStateForRecipes(ctx context.Context, recipes ...domain.Recipe) (viewerState, error) {
	authorIDs := make([]int64, 0, len(recipes))
	recipeIDs := make([]int64, 0, len(recipes))
	for _, rec := range recipes {
		authorIDs = append(authorIDs, rec.Author.ID)
		recipeIDs = append(recipeIDs, rec.ID)
	}
	return s.loadViewerState(ctx, authorIDs, recipeIDs)
}

// checkRecipeReferences reports unknown or repeated ingredients and unknown tags.
func (s *Server) checkRecipeReferences(ctx context.Context, req recipeWriteRequest) (validation.Errors, error) {
	fields := validation.Errors{}

	ids := make([]int64, 0, len(req.Ingredients))
	seen := make(map[int64]bool, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		if seen[ing.ID] {
			fields["ingredients"] = "Ingredients must not repeat."
		}
		seen[ing.ID] = true
		ids = append(ids, ing.ID)
	}
	existing, err := s.repo.Ingredients.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if !existing[id] {
			fields["ingredients"] = fmt.Sprintf("Ingredient %d does not exist.", id)
			break
		}
	}

	count, err := s.repo.Tags.CountExisting(ctx, req.Tags)
	if err != nil {
		return nil, err
	}
	if count != len(req.Tags) {
		fields["tags"] = "Some tags do not exist."
	}
	return fields, nil
}

func (s *Server) respondImageError(w http.ResponseWriter, err error) {
	if errors.Is(err, media.ErrInvalidImage) {
		s.respondValidation(w, validation.Errors{"image": "Upload a valid base64 encoded image."})
		return
	}
	s.logger.Error().Err(err).Msg("store image failed")
	s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store image")
}

func mergeRecipePatch(current domain.Recipe, patch recipePatchRequest) recipeWriteRequest {
	req := recipeWriteRequest{
		Name:        current.Name,
		Text:        current.Text,
		CookingTime: current.CookingTime,
	}
	for _, t := range current.Tags {
		req.Tags = append(req.Tags, t.ID)
	}
	for _, ing := range current.Ingredients {
		req.Ingredients = append(req.Ingredients, ingredientAmountRequest{ID: ing.ID, Amount: ing.Amount})
	}

	if patch.Ingredients != nil {
		req.Ingredients = *patch.Ingredients
	}
	if patch.Tags != nil {
		req.Tags = *patch.Tags
	}
	if patch.Name != nil {
		req.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Text != nil {
		req.Text = *patch.Text
	}
	if patch.CookingTime != nil {
		req.CookingTime = *patch.CookingTime
	}
	return req
}

func toWriteParams(authorID int64, image string, req recipeWriteRequest) repository.RecipeWriteParams {
	lines := make([]repository.IngredientAmount, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		lines = append(lines, repository.IngredientAmount{IngredientID: ing.ID, Amount: ing.Amount})
	}
	return repository.RecipeWriteParams{
		AuthorID:    authorID,
		Name:        req.Name,
		Image:       image,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		TagIDs:      req.Tags,
		Ingredients: lines,
	}
}
