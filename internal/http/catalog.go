package httpserver

import (
	"net/http"
)

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.repo.Tags.List(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "list tags")
		return
	}
	resp := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		resp = append(resp, toTagResponse(t))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTag(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.respondNotFound(w)
		return
	}
	tag, err := s.repo.Tags.GetByID(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err, "fetch tag")
		return
	}
	s.respondJSON(w, http.StatusOK, toTagResponse(tag))
}

func (s *Server) handleListIngredients(w http.ResponseWriter, r *http.Request) {
	items, err := s.repo.Ingredients.Search(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		s.respondStoreError(w, err, "list ingredients")
		return
	}
	resp := make([]ingredientResponse, 0, len(items))
	for _, ing := range items {
		resp = append(resp, toIngredientResponse(ing))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetIngredient(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.respondNotFound(w)
		return
	}
	ing, err := s.repo.Ingredients.GetByID(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err, "fetch ingredient")
		return
	}
	s.respondJSON(w, http.StatusOK, toIngredientResponse(ing))
}
