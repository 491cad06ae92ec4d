// Package fixtures loads tag and ingredient catalogues from JSON files with
// get-or-create semantics, so reruns only add what is missing.
package fixtures

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/foodgram/internal/domain"
)

// Kind names the catalogue a file holds.
type Kind string

const (
	KindTags        Kind = "tags"
	KindIngredients Kind = "ingredients"
)

// Catalog is the write side the loader needs.
type Catalog interface {
	CreateTag(ctx context.Context, tag domain.Tag) (bool, error)
	CreateIngredient(ctx context.Context, name, unit string) (bool, error)
}

// Result counts processed and newly created rows.
type Result struct {
	Total   int
	Created int
}

type tagEntry struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type ingredientEntry struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// KindFromFilename infers the kind from the file's base name, e.g. "data/tags.json".
func KindFromFilename(path string) (Kind, error) {
	base := strings.SplitN(filepath.Base(path), ".", 2)[0]
	switch Kind(base) {
	case KindTags, KindIngredients:
		return Kind(base), nil
	default:
		return "", fmt.Errorf("cannot infer fixture kind from %q, want tags.* or ingredients.*", path)
	}
}

// Load reads a JSON array of kind entries from r and writes them to catalog.
func Load(ctx context.Context, kind Kind, r io.Reader, catalog Catalog, logger zerolog.Logger) (Result, error) {
	dec := json.NewDecoder(r)
	var res Result
	switch kind {
	case KindTags:
		var entries []tagEntry
		if err := dec.Decode(&entries); err != nil {
			return res, fmt.Errorf("decode tags: %w", err)
		}
		for i, e := range entries {
			if e.Name == "" || e.Slug == "" {
				return res, fmt.Errorf("tag #%d: name and slug are required", i)
			}
			created, err := catalog.CreateTag(ctx, domain.Tag{
				Name:  e.Name,
				Color: strings.TrimPrefix(e.Color, "#"),
				Slug:  e.Slug,
			})
			if err != nil {
				return res, fmt.Errorf("tag %q: %w", e.Slug, err)
			}
			res.add(created)
		}
	case KindIngredients:
		var entries []ingredientEntry
		if err := dec.Decode(&entries); err != nil {
			return res, fmt.Errorf("decode ingredients: %w", err)
		}
		for i, e := range entries {
			if e.Name == "" || e.MeasurementUnit == "" {
				return res, fmt.Errorf("ingredient #%d: name and measurement_unit are required", i)
			}
			created, err := catalog.CreateIngredient(ctx, e.Name, e.MeasurementUnit)
			if err != nil {
				return res, fmt.Errorf("ingredient %q: %w", e.Name, err)
			}
			res.add(created)
		}
	default:
		return res, fmt.Errorf("unknown fixture kind %q", kind)
	}

	logger.Info().
		Str("kind", string(kind)).
		Int("total", res.Total).
		Int("created", res.Created).
		Msg("fixtures loaded")
	return res, nil
}

func (r *Result) add(created bool) {
	r.Total++
	if created {
		r.Created++
	}
}
