package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromString_Valid(t *testing.T) {
	a, err := NewFromString("100.50")
	require.NoError(t, err)
	assert.Equal(t, "100.5", a.String())
}

func TestNewFromString_MinimumUnit(t *testing.T) {
	a, err := NewFromString("0.00000001")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Sign())
}

func TestNewFromString_ZeroRejected(t *testing.T) {
	_, err := NewFromString("0")
	assert.ErrorIs(t, err, ErrNotPositive)
}

func TestNewFromString_NegativeRejected(t *testing.T) {
	_, err := NewFromString("-5")
	assert.ErrorIs(t, err, ErrNotPositive)
}

func TestNewFromString_TooPrecise(t *testing.T) {
	_, err := NewFromString("1.123456789")
	assert.ErrorIs(t, err, ErrTooPrecise)
}

func TestNewFromString_TooLarge(t *testing.T) {
	_, err := NewFromString("10000000.01")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestNewFromString_AtMagnitudeBoundary(t *testing.T) {
	a, err := NewFromString("10000000")
	require.NoError(t, err)
	assert.True(t, a.Equal(Amount{d: decimal.New(1, 7)}))
}

func TestNewSigned_AllowsNegative(t *testing.T) {
	a, err := NewSigned(decimal.New(-5, 0))
	require.NoError(t, err)
	assert.True(t, a.IsNegative())
}

func TestWithin_Tolerance(t *testing.T) {
	a, _ := NewSigned(decimal.NewFromFloat(100.00000001))
	b, _ := NewSigned(decimal.NewFromFloat(100.0))
	tol, _ := NewSigned(decimal.NewFromFloat(1e-8))
	assert.True(t, Within(a, b, tol))
}

func TestAddSub_RoundTrip(t *testing.T) {
	a, _ := NewFromString("500")
	m, _ := NewFromString("100")
	after := a.Sub(m)
	assert.Equal(t, "400", after.String())
	back := after.Add(m)
	assert.True(t, back.Equal(a))
}
