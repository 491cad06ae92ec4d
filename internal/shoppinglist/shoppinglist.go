// Package shoppinglist builds the downloadable shopping list for a user by
// summing ingredient amounts over every recipe in the user's cart.
package shoppinglist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Clark-Hu/foodgram/internal/domain"
)

// ErrNotFound is returned when the user does not exist.
var ErrNotFound = errors.New("shoppinglist: user not found")

// Source is the read-only data access the aggregator depends on.
type Source interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
	// ListCartRecipeIDs returns cart recipes in stored order, most recent first.
	ListCartRecipeIDs(ctx context.Context, userID int64) ([]int64, error)
	ListIngredientLines(ctx context.Context, recipeID int64) ([]domain.IngredientLine, error)
}

// Line is one aggregated entry of the shopping list.
type Line struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

// Aggregator reduces cart contents into shopping list lines.
type Aggregator struct {
	source Source
}

// New returns an Aggregator reading from source.
func New(source Source) *Aggregator {
	return &Aggregator{source: source}
}

// Aggregate returns one line per distinct ingredient name in first-seen order.
// Lines are keyed by name only: the unit of the first occurrence is kept and
// later occurrences only add their amount.
func (a *Aggregator) Aggregate(ctx context.Context, userID int64) ([]Line, error) {
	exists, err := a.source.UserExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	recipeIDs, err := a.source.ListCartRecipeIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}

	lines := make([]Line, 0)
	index := make(map[string]int)
	for _, recipeID := range recipeIDs {
		ingredients, err := a.source.ListIngredientLines(ctx, recipeID)
		if err != nil {
			return nil, fmt.Errorf("list ingredients of recipe %d: %w", recipeID, err)
		}
		for _, ing := range ingredients {
			if i, ok := index[ing.Name]; ok {
				lines[i].Amount += ing.Amount
				continue
			}
			index[ing.Name] = len(lines)
			lines = append(lines, Line{
				Name:            ing.Name,
				MeasurementUnit: ing.MeasurementUnit,
				Amount:          ing.Amount,
			})
		}
	}
	return lines, nil
}

// Write renders lines as "<name> - <amount> <unit>.\n" each.
func Write(w io.Writer, lines []Line) error {
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s - %d %s.\n", l.Name, l.Amount, l.MeasurementUnit); err != nil {
			return err
		}
	}
	return nil
}

// Render returns the plain text payload for lines. No lines yields an empty payload.
func Render(lines []Line) []byte {
	var buf bytes.Buffer
	_ = Write(&buf, lines)
	return buf.Bytes()
}
