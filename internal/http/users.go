package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Clark-Hu/foodgram/internal/auth"
	"github.com/Clark-Hu/foodgram/internal/domain"
	"github.com/Clark-Hu/foodgram/internal/repository"
	"github.com/Clark-Hu/foodgram/internal/validation"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=150"`
}

type setPasswordRequest struct {
	NewPassword     string `json:"new_password" validate:"required,min=8,max=150"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if !s.validate(w, &req) {
		return
	}

	user, err := s.repo.Users.GetByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.respondStoreError(w, err, "log in")
		return
	}
	if err != nil || auth.CheckPassword(user.PasswordHash, req.Password) != nil {
		s.respondValidation(w, validation.Errors{"non_field_errors": "Unable to log in with provided credentials."})
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("issue token failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"auth_token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	v, _ := viewerFrom(r.Context())
	if err := s.tokens.Revoke(r.Context(), v.claims); err != nil {
		s.logger.Error().Err(err).Int64("user_id", v.user.ID).Msg("revoke token failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if !s.validate(w, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("hash password failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register user")
		return
	}

	user, err := s.repo.Users.Create(r.Context(), repository.UserCreateParams{
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.respondValidation(w, validation.Errors{"username": "A user with that email or username already exists."})
			return
		}
		s.respondStoreError(w, err, "register user")
		return
	}

	s.respondJSON(w, http.StatusCreated, userCreatedResponse{
		Email:     user.Email,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	p, err := s.parsePagination(r.URL.Query())
	if err != nil {
		s.respondPaginationError(w, err)
		return
	}

	users, total, err := s.repo.Users.List(r.Context(), p.window())
	if err != nil {
		s.respondStoreError(w, err, "list users")
		return
	}

	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	state, err := s.loadViewerState(r.Context(), ids, nil)
	if err != nil {
		s.respondStoreError(w, err, "list users")
		return
	}

	results := make([]userResponse, 0, len(users))
	for _, u := range users {
		results = append(results, toUserResponse(u, state))
	}
	page, ok := buildPage(r, p, total, results)
	if !ok {
		s.respondPaginationError(w, errInvalidPage)
		return
	}
	s.respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.respondNotFound(w)
		return
	}
	user, err := s.repo.Users.GetByID(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err, "fetch user")
		return
	}
	state, err := s.loadViewerState(r.Context(), []int64{user.ID}, nil)
	if err != nil {
		s.respondStoreError(w, err, "fetch user")
		return
	}
	s.respondJSON(w, http.StatusOK, toUserResponse(user, state))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	v, _ := viewerFrom(r.Context())
	s.respondJSON(w, http.StatusOK, toUserResponse(v.user, viewerState{}))
}

func (s *Server) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	v, _ := viewerFrom(r.Context())

	var req setPasswordRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if !s.validate(w, &req) {
		return
	}
	if err := auth.CheckPassword(v.user.PasswordHash, req.CurrentPassword); err != nil {
		s.respondValidation(w, validation.Errors{"current_password": "Invalid password."})
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.logger.Error().Err(err).Msg("hash password failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to set password")
		return
	}
	if err := s.repo.Users.UpdatePassword(r.Context(), v.user.ID, hash); err != nil {
		s.respondStoreError(w, err, "set password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	v, _ := viewerFrom(r.Context())
	query := r.URL.Query()
	p, err := s.parsePagination(query)
	if err != nil {
		s.respondPaginationError(w, err)
		return
	}
	limit, err := parseRecipesLimit(query.Get("recipes_limit"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	authors, total, err := s.repo.Follows.ListAuthors(r.Context(), v.user.ID, p.window())
	if err != nil {
		s.respondStoreError(w, err, "list subscriptions")
		return
	}
	results := make([]subscriptionResponse, 0, len(authors))
	for _, author := range authors {
		sub, err := s.buildSubscription(r, author, limit)
		if err != nil {
			s.respondStoreError(w, err, "list subscriptions")
			return
		}
		results = append(results, sub)
	}
	page, ok := buildPage(r, p, total, results)
	if !ok {
		s.respondPaginationError(w, errInvalidPage)
		return
	}
	s.respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	v, _ := viewerFrom(r.Context())
	id, ok := idParam(r)
	if !ok {
		s.respondNotFound(w)
		return
	}
	limit, err := parseRecipesLimit(r.URL.Query().Get("recipes_limit"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	author, err := s.repo.Users.GetByID(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err, "subscribe")
		return
	}
	if author.ID == v.user.ID {
		s.respondValidation(w, validation.Errors{"author": "You cannot subscribe to yourself."})
		return
	}
	if err := s.repo.Follows.Create(r.Context(), v.user.ID, author.ID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.respondValidation(w, validation.Errors{"author": "You are already subscribed to this author."})
			return
		}
		s.respondStoreError(w, err, "subscribe")
		return
	}

	sub, err := s.buildSubscription(r, author, limit)
	if err != nil {
		s.respondStoreError(w, err, "subscribe")
		return
	}
	s.respondJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	v, _ := viewerFrom(r.Context())
	id, ok := idParam(r)
	if !ok {
		s.respondNotFound(w)
		return
	}
	if _, err := s.repo.Users.GetByID(r.Context(), id); err != nil {
		s.respondStoreError(w, err, "unsubscribe")
		return
	}
	if err := s.repo.Follows.Delete(r.Context(), v.user.ID, id); err != nil {
		s.respondStoreError(w, err, "unsubscribe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// buildSubscription renders an author the caller follows with up to limit recipes.
func (s *Server) buildSubscription(r *http.Request, author domain.User, limit int) (subscriptionResponse, error) {
	var recipes []domain.RecipeSummary
	if limit != 0 {
		var err error
		recipes, err = s.repo.Recipes.SummariesByAuthor(r.Context(), author.ID, limit)
		if err != nil {
			return subscriptionResponse{}, err
		}
	}
	counts, err := s.repo.Recipes.CountByAuthor(r.Context(), []int64{author.ID})
	if err != nil {
		return subscriptionResponse{}, err
	}
	state, err := s.loadViewerState(r.Context(), []int64{author.ID}, nil)
	if err != nil {
		return subscriptionResponse{}, err
	}

	short := make([]recipeShortResponse, 0, len(recipes))
	for _, rec := range recipes {
		short = append(short, s.toRecipeShort(rec))
	}
	return subscriptionResponse{
		userResponse: toUserResponse(author, state),
		Recipes:      short,
		RecipesCount: counts[author.ID],
	}, nil
}

// noRecipesLimit means every recipe of the author is listed.
const noRecipesLimit = -1

// parseRecipesLimit reads ?recipes_limit. Empty means no limit; zero lists no recipes.
func parseRecipesLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return noRecipesLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errors.New("invalid recipes_limit value")
	}
	return limit, nil
}

// validate runs struct validation and writes the 400 response on failure.
func (s *Server) validate(w http.ResponseWriter, req interface{}) bool {
	err := validation.Struct(req)
	if err == nil {
		return true
	}
	var fields validation.Errors
	if errors.As(err, &fields) {
		s.respondValidation(w, fields)
		return false
	}
	s.logger.Error().Err(err).Msg("validator misconfigured")
	s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to validate request")
	return false
}
