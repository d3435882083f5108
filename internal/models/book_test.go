package models

import (
	"encoding/json"
	"testing"

	"github.com/ngenohkevin/bookrent/internal/errs"
	"github.com/ngenohkevin/bookrent/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenre_IsValid(t *testing.T) {
	for _, g := range Genres {
		assert.True(t, g.IsValid(), g)
	}
	assert.False(t, Genre("Poetry").IsValid())
	assert.False(t, Genre("fiction").IsValid())
}

func TestCreateBookRequest_Validate(t *testing.T) {
	valid := func() CreateBookRequest {
		return CreateBookRequest{
			Title:  "  Dune ",
			Author: "Frank Herbert",
			Genre:  GenreFantasy,
			Value:  money.MustParse("20.00"),
			Copies: 2,
		}
	}

	t.Run("valid request is normalized", func(t *testing.T) {
		req := valid()
		require.NoError(t, req.Validate())
		assert.Equal(t, "Dune", req.Title)
		assert.Equal(t, BookTierStandard, req.Tier)
	})

	t.Run("maximum value is accepted", func(t *testing.T) {
		req := valid()
		req.Value = MaxBookValue
		assert.NoError(t, req.Validate())
	})

	tests := []struct {
		name   string
		mutate func(r *CreateBookRequest)
	}{
		{"empty title", func(r *CreateBookRequest) { r.Title = "   " }},
		{"empty author", func(r *CreateBookRequest) { r.Author = "" }},
		{"unknown genre", func(r *CreateBookRequest) { r.Genre = "Poetry" }},
		{"zero value", func(r *CreateBookRequest) { r.Value = money.Zero }},
		{"negative value", func(r *CreateBookRequest) { r.Value = money.MustParse("-1") }},
		{"value above maximum", func(r *CreateBookRequest) { r.Value = MaxBookValue.Add(money.FromCents(1)) }},
		{"value that overflows cents", func(r *CreateBookRequest) { r.Value = money.MustParse("100000000000000000.00") }},
		{"zero copies", func(r *CreateBookRequest) { r.Copies = 0 }},
		{"unknown tier", func(r *CreateBookRequest) { r.Tier = "gold" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			assert.ErrorIs(t, req.Validate(), errs.ErrValidation)
		})
	}
}

func TestNewBookResponse_DerivesAvailability(t *testing.T) {
	b := Book{ID: 1, Title: "Dune", TotalCopies: 2, AvailableCopies: 0}
	assert.False(t, NewBookResponse(&b).IsAvailable)

	b.AvailableCopies = 1
	resp := NewBookResponse(&b)
	assert.True(t, resp.IsAvailable)

	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"is_available":true`)
}

func TestCreateReaderRequest_Validate(t *testing.T) {
	req := CreateReaderRequest{FullName: " Ada Lovelace ", Category: ReaderCategoryStudent}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Ada Lovelace", req.FullName)

	missingName := CreateReaderRequest{Category: ReaderCategoryVIP}
	assert.ErrorIs(t, missingName.Validate(), errs.ErrValidation)

	missingCategory := CreateReaderRequest{FullName: "Ada"}
	assert.ErrorIs(t, missingCategory.Validate(), errs.ErrValidation)

	badCategory := CreateReaderRequest{FullName: "Ada", Category: "Gold"}
	assert.ErrorIs(t, badCategory.Validate(), errs.ErrValidation)
}
