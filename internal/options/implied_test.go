package options

import (
	"testing"

	"folio/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImpliedVolatility_RoundTrip(t *testing.T) {
	e := NewEngine()
	for _, tc := range []struct {
		c    Contract
		spot float64
		vol  float64
	}{
		{contract(model.Call, 100, 90), 100, 0.35},
		{contract(model.Call, 120, 180), 100, 0.6},
		{contract(model.Put, 95, 45), 100, 0.25},
		{contract(model.Put, 100, 365), 90, 0.8},
	} {
		price, err := e.Price(tc.c, tc.spot, tc.vol, calcDate)
		require.NoError(t, err)

		got, err := e.ImpliedVolatility(tc.c, tc.spot, price, calcDate)
		require.NoError(t, err)
		assert.InDelta(t, tc.vol, got, 1e-3, "%s %v", tc.c.Type, tc.c.Strike)
	}
}

func TestImpliedVolatility_BelowIntrinsicRaises(t *testing.T) {
	e := NewEngine()

	_, err := e.ImpliedVolatility(contract(model.Call, 100, 30), 120, 19.99, calcDate)
	assert.ErrorIs(t, err, ErrBelowIntrinsic)

	_, err = e.ImpliedVolatility(contract(model.Put, 100, 0), 80, 19.5, calcDate)
	assert.ErrorIs(t, err, ErrBelowIntrinsic)
}

func TestImpliedVolatility_AtIntrinsicReturnsFloor(t *testing.T) {
	e := NewEngine()
	got, err := e.ImpliedVolatility(contract(model.Put, 100, 30), 80, 20, calcDate)
	require.NoError(t, err)
	assert.Equal(t, MinVol, got)
}

func TestImpliedVolatility_AtExpiry(t *testing.T) {
	e := NewEngine()
	c := contract(model.Call, 100, 0)

	got, err := e.ImpliedVolatility(c, 110, 10, calcDate)
	require.NoError(t, err)
	assert.Equal(t, MinVol, got)

	got, err = e.ImpliedVolatility(c, 110, 10.75, calcDate)
	require.NoError(t, err)
	assert.Equal(t, DefaultVol, got)
}

func TestImpliedVolatility_Clamps(t *testing.T) {
	e := NewEngine()

	// above intrinsic but below the carry-only value at the floor
	got, err := e.ImpliedVolatility(contract(model.Call, 100, 182), 120, 20.5, calcDate)
	require.NoError(t, err)
	assert.Equal(t, MinVol, got)

	// more than the model can produce at the ceiling
	got, err = e.ImpliedVolatility(contract(model.Call, 100, 30), 100, 99, calcDate)
	require.NoError(t, err)
	assert.Equal(t, MaxVol, got)
}

func TestImpliedVolatility_RejectsNonPositivePrice(t *testing.T) {
	e := NewEngine()
	for _, p := range []float64{0, -1.5} {
		_, err := e.ImpliedVolatility(contract(model.Call, 100, 30), 100, p, calcDate)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestImpliedVolatility_AlwaysWithinBounds(t *testing.T) {
	e := NewEngine(WithSteps(50))
	for _, typ := range []model.OptionType{model.Call, model.Put} {
		c := contract(typ, 100, 60)
		for _, spot := range []float64{70, 100, 130} {
			intrinsic := Intrinsic(c, spot)
			for _, extra := range []float64{0, 0.01, 0.5, 3, 15, 60} {
				iv, err := e.ImpliedVolatility(c, spot, intrinsic+extra+0.01, calcDate)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, iv, MinVol)
				assert.LessOrEqual(t, iv, MaxVol)
			}
		}
	}
}

func TestPositionDelta(t *testing.T) {
	e := NewEngine()
	c := contract(model.Call, 100, 90)

	price, err := e.Price(c, 105, 0.3, calcDate)
	require.NoError(t, err)

	delta, vol, err := e.PositionDelta(c, 105, price, calcDate)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, vol, 1e-3)

	want, err := e.Delta(c, 105, 0.3, calcDate)
	require.NoError(t, err)
	assert.InDelta(t, want, delta, 1e-3)

	_, _, err = e.PositionDelta(c, 105, 0, calcDate)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
