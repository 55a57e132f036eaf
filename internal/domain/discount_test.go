package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCalculateDiscount tests the quantity tier table
func TestCalculateDiscount(t *testing.T) {
	policy := DefaultDiscountPolicy()

	tests := []struct {
		name        string
		quantity    int
		unitPrice   string
		expected    string
		expectError bool
	}{
		{name: "Single item no discount", quantity: 1, unitPrice: "10", expected: "0"},
		{name: "Three items no discount", quantity: 3, unitPrice: "10", expected: "0"},
		{name: "Four items ten percent", quantity: 4, unitPrice: "10", expected: "4"},
		{name: "Five items ten percent", quantity: 5, unitPrice: "10", expected: "5"},
		{name: "Nine items ten percent", quantity: 9, unitPrice: "10", expected: "9"},
		{name: "Ten items twenty percent", quantity: 10, unitPrice: "10", expected: "20"},
		{name: "Fifteen items twenty percent", quantity: 15, unitPrice: "10", expected: "30"},
		{name: "Twenty items twenty percent", quantity: 20, unitPrice: "10", expected: "40"},
		{name: "Twenty-one items unsupported", quantity: 21, unitPrice: "10", expectError: true},
		{name: "Twenty-five items unsupported", quantity: 25, unitPrice: "10", expectError: true},
		{name: "Zero quantity unsupported", quantity: 0, unitPrice: "10", expectError: true},
		{name: "Negative quantity unsupported", quantity: -1, unitPrice: "10", expectError: true},
		{name: "Fractional price ten percent", quantity: 5, unitPrice: "9.99", expected: "4.995"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unitPrice := decimal.RequireFromString(tt.unitPrice)

			discount, err := policy.CalculateDiscount(tt.quantity, unitPrice)

			if tt.expectError {
				assert.ErrorIs(t, err, ErrUnsupportedQuantity)
				return
			}

			require.NoError(t, err)
			expected := decimal.RequireFromString(tt.expected)
			assert.True(t, expected.Equal(discount), "expected %s, got %s", expected, discount)
		})
	}
}

// TestCalculateDiscountExactArithmetic verifies discount math does not
// accumulate binary floating point drift
func TestCalculateDiscountExactArithmetic(t *testing.T) {
	policy := DefaultDiscountPolicy()

	unitPrice := decimal.RequireFromString("0.10")
	discount, err := policy.CalculateDiscount(4, unitPrice)

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.04").Equal(discount), "got %s", discount)
}

// TestNewDiscountPolicyCustomTiers tests a constructor-injected tier table
func TestNewDiscountPolicyCustomTiers(t *testing.T) {
	policy := NewDiscountPolicy([]DiscountTier{
		{MinQuantity: 1, MaxQuantity: 5, Rate: decimal.NewFromFloat(0.5)},
	})

	discount, err := policy.CalculateDiscount(2, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(discount))

	_, err = policy.CalculateDiscount(6, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrUnsupportedQuantity)
}
