package httpserver

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/Clark-Hu/foodgram/internal/repository"
	"github.com/Clark-Hu/foodgram/internal/validation"
)

const maxRequestBody = 10 << 20 // 10 MiB, recipe images arrive inline

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type pageResponse[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

var errInvalidPage = errors.New("invalid page")

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error().Err(err).Msg("failed to encode response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondValidation(w http.ResponseWriter, fields validation.Errors) {
	s.respondJSON(w, http.StatusBadRequest, errorResponse{
		Code:    "VALIDATION_ERROR",
		Message: fields.Error(),
		Details: map[string]interface{}{"fields": fields},
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.As(err, &maxBytesError):
		s.respondError(w, http.StatusRequestEntityTooLarge, "VALIDATION_ERROR", "Request body too large")
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

// respondStoreError maps repository failures; anything unexpected is logged as internal.
func (s *Server) respondStoreError(w http.ResponseWriter, err error, action string) {
	if errors.Is(err, repository.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	}
	s.logger.Error().Err(err).Str("action", action).Msg("store operation failed")
	s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+action)
}

func (s *Server) respondNotFound(w http.ResponseWriter) {
	s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}

// idParam reads the {id} path parameter as a positive integer.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// pagination is a page-number window over a listing.
type pagination struct {
	page  int
	limit int
}

func (p pagination) window() repository.Page {
	return repository.Page{Limit: p.limit, Offset: (p.page - 1) * p.limit}
}

// parsePagination reads ?page and ?limit; limit is clamped to the configured maximum.
// A page whose offset cannot be represented is reported as an invalid page.
func (s *Server) parsePagination(query url.Values) (pagination, error) {
	p := pagination{page: 1, limit: s.cfg.PageSize}
	if val := strings.TrimSpace(query.Get("page")); val != "" {
		page, err := strconv.Atoi(val)
		if err != nil || page < 1 {
			return p, errInvalidPage
		}
		p.page = page
	}
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil || limit < 1 {
			return p, fmt.Errorf("invalid limit value")
		}
		p.limit = limit
	}
	if s.cfg.MaxPageSize > 0 && p.limit > s.cfg.MaxPageSize {
		p.limit = s.cfg.MaxPageSize
	}
	if p.page > math.MaxInt/p.limit {
		return p, errInvalidPage
	}
	return p, nil
}

func (s *Server) respondPaginationError(w http.ResponseWriter, err error) {
	if errors.Is(err, errInvalidPage) {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Invalid page")
		return
	}
	s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
}

// buildPage assembles the envelope; false means the page lies past the end.
func buildPage[T any](r *http.Request, p pagination, total int64, results []T) (pageResponse[T], bool) {
	if p.page > 1 && int64((p.page-1)*p.limit) >= total {
		return pageResponse[T]{}, false
	}
	resp := pageResponse[T]{Count: total, Results: results}
	if int64(p.page*p.limit) < total {
		next := pageURL(r, p.page+1)
		resp.Next = &next
	}
	if p.page > 1 {
		prev := pageURL(r, p.page-1)
		resp.Previous = &prev
	}
	return resp, true
}

func pageURL(r *http.Request, page int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	query := r.URL.Query()
	if page <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: query.Encode()}
	return u.String()
}
