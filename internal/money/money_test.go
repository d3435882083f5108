package money

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_FromCentsAndString(t *testing.T) {
	assert.Equal(t, "11.90", FromCents(1190).String())
	assert.Equal(t, "0.05", FromCents(5).String())
	assert.Equal(t, "-3.00", FromCents(-300).String())

	cents, err := FromCents(1190).Cents()
	require.NoError(t, err)
	assert.Equal(t, int64(1190), cents)
}

func TestMoney_CentsOverflow(t *testing.T) {
	largest := FromCents(math.MaxInt64)
	cents, err := largest.Cents()
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), cents)

	_, err = largest.Add(FromCents(1)).Cents()
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = MustParse("100000000000000000.00").Cents()
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = FromCents(math.MinInt64).Sub(FromCents(1)).Cents()
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestMoney_ParseRoundsHalfEven(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.005", "1.00"},
		{"1.015", "1.02"},
		{"1.025", "1.02"},
		{"2.675", "2.68"},
		{"10", "10.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.String())
		})
	}
}

func TestMoney_ParseInvalid(t *testing.T) {
	_, err := Parse("twelve")
	assert.Error(t, err)
}

func TestMoney_Arithmetic(t *testing.T) {
	a := MustParse("14.00")
	b := MustParse("2.10")

	assert.Equal(t, "16.10", a.Add(b).String())
	assert.Equal(t, "11.90", a.Sub(b).String())
	assert.Equal(t, "42.00", a.MulInt(3).String())
	assert.Equal(t, "11.90", a.MulRate(decimal.RequireFromString("0.85")).String())
	assert.Equal(t, b, Min(a, b))
	assert.Equal(t, a, Max(a, b))
	assert.Equal(t, "18.20", Sum(a, b, b).String())
	assert.True(t, Zero.IsZero())
	assert.True(t, a.IsPositive())
	assert.True(t, b.Sub(a).IsNegative())
}

func TestMoney_SplitAddsBackUp(t *testing.T) {
	deposit := MustParse("7.33")
	rate := decimal.RequireFromString("0.333")

	part := deposit.MulRate(rate)
	rest := deposit.Sub(part)

	assert.True(t, part.Add(rest).Equal(deposit))
}

func TestMoney_JSON(t *testing.T) {
	type payload struct {
		Amount Money `json:"amount"`
	}

	out, err := json.Marshal(payload{Amount: MustParse("11.9")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":11.90}`, string(out))

	var fromNumber payload
	require.NoError(t, json.Unmarshal([]byte(`{"amount":19.99}`), &fromNumber))
	assert.Equal(t, "19.99", fromNumber.Amount.String())

	var fromString payload
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"5.5"}`), &fromString))
	assert.Equal(t, "5.50", fromString.Amount.String())

	var bad payload
	assert.Error(t, json.Unmarshal([]byte(`{"amount":"abc"}`), &bad))
}
