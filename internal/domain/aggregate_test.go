package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItems() []*SaleItem {
	return []*SaleItem{
		NewSaleItem(1, "Widget Standard", 5, decimal.NewFromInt(10)),
		NewSaleItem(2, "Widget Deluxe", 15, decimal.NewFromInt(10)),
	}
}

func testSale(t *testing.T) *Sale {
	t.Helper()
	sale, err := NewSale(time.Now().UTC().Add(-time.Hour), 1, "Acme Corp", 2, "Main Branch", testItems())
	require.NoError(t, err)
	return sale
}

// TestNewSale tests sale creation
func TestNewSale(t *testing.T) {
	tests := []struct {
		name        string
		saleDate    time.Time
		items       []*SaleItem
		expectError error
	}{
		{
			name:     "Valid sale in the past",
			saleDate: time.Now().UTC().AddDate(0, 0, -1),
			items:    testItems(),
		},
		{
			name:        "Future sale date rejected",
			saleDate:    time.Now().UTC().Add(24 * time.Hour),
			items:       testItems(),
			expectError: ErrFutureSaleDate,
		},
		{
			name:        "Empty item list rejected",
			saleDate:    time.Now().UTC().AddDate(0, 0, -1),
			items:       nil,
			expectError: ErrNoItems,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sale, err := NewSale(tt.saleDate, 1, "Acme Corp", 2, "Main Branch", tt.items)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, sale)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, sale)
			assert.NotEmpty(t, sale.ID)
			assert.False(t, sale.IsCancelled)
			assert.NotZero(t, sale.CreatedAt)
			assert.Nil(t, sale.UpdatedAt)

			events := sale.DomainEvents()
			require.Len(t, events, 1)
			assert.Equal(t, EventKindSaleCreated, events[0].Kind())
			assert.Equal(t, sale.ID, events[0].SubjectID())
		})
	}
}

// TestSaleNumberFormat tests the generated sale number shape
func TestSaleNumberFormat(t *testing.T) {
	sale := testSale(t)

	pattern := regexp.MustCompile(`^SALE-\d{8}-[A-F0-9]{8}$`)
	assert.Regexp(t, pattern, sale.SaleNumber)
}

// TestApplyDiscounts tests discount application across items
func TestApplyDiscounts(t *testing.T) {
	sale := testSale(t)

	err := sale.ApplyDiscounts(DefaultDiscountPolicy())
	require.NoError(t, err)

	// quantity 5 at 10 -> 10% of 50
	assert.True(t, decimal.NewFromInt(5).Equal(sale.Items[0].Discount), "got %s", sale.Items[0].Discount)
	// quantity 15 at 10 -> 20% of 150
	assert.True(t, decimal.NewFromInt(30).Equal(sale.Items[1].Discount), "got %s", sale.Items[1].Discount)
}

// TestApplyDiscountsAbortsOnBadItem tests all-or-nothing semantics
func TestApplyDiscountsAbortsOnBadItem(t *testing.T) {
	items := []*SaleItem{
		NewSaleItem(1, "Widget Standard", 5, decimal.NewFromInt(10)),
		NewSaleItem(2, "Widget Deluxe", 25, decimal.NewFromInt(10)),
	}
	sale, err := NewSale(time.Now().UTC().Add(-time.Hour), 1, "Acme Corp", 2, "Main Branch", items)
	require.NoError(t, err)

	err = sale.ApplyDiscounts(DefaultDiscountPolicy())
	assert.ErrorIs(t, err, ErrUnsupportedQuantity)

	// no partial application
	assert.True(t, decimal.Zero.Equal(sale.Items[0].Discount))
	assert.True(t, decimal.Zero.Equal(sale.Items[1].Discount))
}

// TestCalculateTotalAmount tests total derivation and the aggregate invariant
func TestCalculateTotalAmount(t *testing.T) {
	sale := testSale(t)

	require.NoError(t, sale.ApplyDiscounts(DefaultDiscountPolicy()))
	sale.CalculateTotalAmount()

	// 5x10 + 15x10 = 200 gross
	assert.True(t, decimal.NewFromInt(200).Equal(sale.TotalAmountBeforeDiscount), "got %s", sale.TotalAmountBeforeDiscount)
	// 45 + 120 = 165 after discounts
	assert.True(t, decimal.NewFromInt(165).Equal(sale.TotalAmount), "got %s", sale.TotalAmount)

	// invariant: aggregate total equals the sum of item totals
	sum := decimal.Zero
	for _, item := range sale.Items {
		sum = sum.Add(item.TotalAmount)
	}
	assert.True(t, sum.Equal(sale.TotalAmount))
}

// TestCalculateTotalAmountIdempotent tests repeated recomputation
func TestCalculateTotalAmountIdempotent(t *testing.T) {
	sale := testSale(t)
	require.NoError(t, sale.ApplyDiscounts(DefaultDiscountPolicy()))

	sale.CalculateTotalAmount()
	first := sale.TotalAmount

	sale.CalculateTotalAmount()
	assert.True(t, first.Equal(sale.TotalAmount))
}

// TestItemTotalScenarios tests fixed discount scenarios per item
func TestItemTotalScenarios(t *testing.T) {
	tests := []struct {
		name          string
		quantity      int
		expectedTotal string
	}{
		{name: "Five at ten totals 45", quantity: 5, expectedTotal: "45"},
		{name: "Fifteen at ten totals 120", quantity: 15, expectedTotal: "120"},
	}

	policy := DefaultDiscountPolicy()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := NewSaleItem(1, "Widget Standard", tt.quantity, decimal.NewFromInt(10))

			discount, err := policy.CalculateDiscount(item.Quantity, item.UnitPrice)
			require.NoError(t, err)
			item.Discount = discount
			item.CalculateTotal()

			expected := decimal.RequireFromString(tt.expectedTotal)
			assert.True(t, expected.Equal(item.TotalAmount), "expected %s, got %s", expected, item.TotalAmount)
		})
	}
}

// TestCancel tests cancellation state transitions
func TestCancel(t *testing.T) {
	sale := testSale(t)
	sale.ClearDomainEvents()

	sale.Cancel()

	assert.True(t, sale.IsCancelled)
	require.NotNil(t, sale.UpdatedAt)

	events := sale.DomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventKindSaleCancelled, events[0].Kind())

	// second cancel re-stamps UpdatedAt but emits nothing new
	firstStamp := *sale.UpdatedAt
	time.Sleep(time.Millisecond)
	sale.Cancel()

	assert.True(t, sale.IsCancelled)
	assert.True(t, sale.UpdatedAt.After(firstStamp) || sale.UpdatedAt.Equal(firstStamp))
	assert.Len(t, sale.DomainEvents(), 1)
}

// TestValidate tests structural validation surfacing the full error list
func TestValidate(t *testing.T) {
	t.Run("Valid sale passes", func(t *testing.T) {
		sale := testSale(t)
		result := sale.Validate()
		assert.True(t, result.IsValid())
		assert.Empty(t, result.Errors)
	})

	t.Run("All violations reported at once", func(t *testing.T) {
		sale := &Sale{
			SaleNumber:   "",
			CustomerID:   0,
			CustomerName: "ab",
			BranchID:     -1,
			BranchName:   "xy",
			Items:        nil,
		}

		result := sale.Validate()
		assert.False(t, result.IsValid())
		assert.Len(t, result.Errors, 6)
	})

	t.Run("Name length counts characters not bytes", func(t *testing.T) {
		sale := testSale(t)
		sale.CustomerName = "日本" // 2 characters, 6 bytes

		result := sale.Validate()
		assert.False(t, result.IsValid())
		assert.Contains(t, result.FieldMap(), "customerName")

		sale.CustomerName = "日本語"
		assert.True(t, sale.Validate().IsValid())
	})

	t.Run("Item violations included", func(t *testing.T) {
		sale := testSale(t)
		sale.Items[0].Quantity = 21
		sale.Items[0].UnitPrice = decimal.Zero

		result := sale.Validate()
		assert.False(t, result.IsValid())
		assert.Len(t, result.Errors, 2)

		fields := result.FieldMap()
		assert.Contains(t, fields, "items[0].quantity")
		assert.Contains(t, fields, "items[0].unitPrice")
	})
}
