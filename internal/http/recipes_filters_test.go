package httpserver

import (
	"net/url"
	"testing"

	"github.com/Clark-Hu/foodgram/internal/domain"
)

func TestBuildRecipeFilters(t *testing.T) {
	values, _ := url.ParseQuery("tags=breakfast&tags= dinner &tags=&author=3&is_favorited=1&is_in_shopping_cart=true")
	viewer := int64(9)

	filters, err := buildRecipeFilters(values, &viewer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(filters.TagSlugs) != 2 || filters.TagSlugs[1] != "dinner" {
		t.Fatalf("tags not parsed: %v", filters.TagSlugs)
	}
	if filters.AuthorID == nil || *filters.AuthorID != 3 {
		t.Fatalf("author parse failed: %+v", filters.AuthorID)
	}
	if filters.FavoritedBy == nil || *filters.FavoritedBy != viewer {
		t.Fatalf("is_favorited should filter by viewer")
	}
	if filters.InCartOf == nil || *filters.InCartOf != viewer {
		t.Fatalf("is_in_shopping_cart should filter by viewer")
	}
}

func TestBuildRecipeFilters_AnonymousIgnoresViewerFlags(t *testing.T) {
	values, _ := url.ParseQuery("is_favorited=1&is_in_shopping_cart=1")
	filters, err := buildRecipeFilters(values, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filters.FavoritedBy != nil || filters.InCartOf != nil {
		t.Fatalf("anonymous viewer must not get relation filters: %+v", filters)
	}
}

func TestBuildRecipeFilters_Invalid(t *testing.T) {
	for _, raw := range []string{"author=abc", "is_favorited=yes", "is_in_shopping_cart=2"} {
		values, _ := url.ParseQuery(raw)
		if _, err := buildRecipeFilters(values, nil); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestExtractToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Token abc", "abc", true},
		{"Bearer abc ", "abc", true},
		{"token abc", "abc", true},
		{"Basic abc", "", false},
		{"Token ", "", false},
		{"abc", "", false},
	}
	for _, c := range cases {
		token, ok := extractToken(c.header)
		if ok != c.ok || token != c.token {
			t.Fatalf("extractToken(%q) = %q, %v; want %q, %v", c.header, token, ok, c.token, c.ok)
		}
	}
}

func TestParseRecipesLimit(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", noRecipesLimit, false},
		{"3", 3, false},
		{"0", 0, false},
		{"-1", 0, true},
		{"x", 0, true},
	}
	for _, tt := range tests {
		got, err := parseRecipesLimit(tt.raw)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("parseRecipesLimit(%q) = %d, %v", tt.raw, got, err)
		}
	}
}

func TestMergeRecipePatch(t *testing.T) {
	current := domain.Recipe{
		ID:          1,
		Name:        "Soup",
		Text:        "Boil.",
		CookingTime: 30,
		Tags:        []domain.Tag{{ID: 4}},
		Ingredients: []domain.RecipeIngredient{{Ingredient: domain.Ingredient{ID: 7}, Amount: 2}},
	}
	name := "  Borscht "
	tags := []int64{5, 6}

	req := mergeRecipePatch(current, recipePatchRequest{Name: &name, Tags: &tags})
	if req.Name != "Borscht" || req.Text != "Boil." || req.CookingTime != 30 {
		t.Fatalf("scalar fields merged wrong: %+v", req)
	}
	if len(req.Tags) != 2 || req.Tags[0] != 5 {
		t.Fatalf("tags not replaced: %v", req.Tags)
	}
	if len(req.Ingredients) != 1 || req.Ingredients[0].ID != 7 || req.Ingredients[0].Amount != 2 {
		t.Fatalf("ingredients should be kept: %+v", req.Ingredients)
	}
}
