package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,max=150,username"`
	Password string `json:"password" validate:"required,min=8"`
}

type line struct {
	ID     int64 `json:"id" validate:"required"`
	Amount int64 `json:"amount" validate:"min=1"`
}

type recipe struct {
	Name        string  `json:"name" validate:"required,max=200"`
	CookingTime int     `json:"cooking_time" validate:"min=1"`
	Tags        []int64 `json:"tags" validate:"unique"`
	Ingredients []line  `json:"ingredients" validate:"min=1,dive"`
}

func TestStructValid(t *testing.T) {
	require.NoError(t, Struct(signup{Email: "a@b.co", Username: "john.doe+1", Password: "long-enough"}))
}

func TestStructFieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		input any
		field string
	}{
		{name: "reserved username", input: signup{Email: "a@b.co", Username: "me", Password: "long-enough"}, field: "username"},
		{name: "username with spaces", input: signup{Email: "a@b.co", Username: "john doe", Password: "long-enough"}, field: "username"},
		{name: "bad email", input: signup{Email: "nope", Username: "john", Password: "long-enough"}, field: "email"},
		{name: "short password", input: signup{Email: "a@b.co", Username: "john", Password: "x"}, field: "password"},
		{name: "no ingredients", input: recipe{Name: "Soup", CookingTime: 1}, field: "ingredients"},
		{name: "zero cooking time", input: recipe{Name: "Soup", Ingredients: []line{{ID: 1, Amount: 1}}}, field: "cooking_time"},
		{name: "duplicate tags", input: recipe{Name: "Soup", CookingTime: 1, Tags: []int64{1, 1}, Ingredients: []line{{ID: 1, Amount: 1}}}, field: "tags"},
		{name: "zero amount", input: recipe{Name: "Soup", CookingTime: 1, Ingredients: []line{{ID: 1, Amount: 0}}}, field: "ingredients[0].amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)
			var fieldErrs Errors
			require.True(t, errors.As(err, &fieldErrs), "error = %v", err)
			require.Contains(t, fieldErrs, tt.field)
		})
	}
}

func TestErrorsMessageIsSorted(t *testing.T) {
	err := Errors{"b": "second", "a": "first"}
	require.Equal(t, "a: first; b: second", err.Error())
}
