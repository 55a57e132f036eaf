package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseSortOrder tests case-insensitive sort order parsing
func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		input    string
		expected SortOrder
	}{
		{input: "asc", expected: SortAscending},
		{input: "ASC", expected: SortAscending},
		{input: "desc", expected: SortDescending},
		{input: "DESC", expected: SortDescending},
		{input: "Descending", expected: SortDescending},
		{input: "", expected: SortAscending},
		{input: "bogus", expected: SortAscending},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseSortOrder(tt.input), "input %q", tt.input)
	}
}

// TestParseSaleFilter tests filter key recognition and normalization
func TestParseSaleFilter(t *testing.T) {
	t.Run("Name filters strip wildcards", func(t *testing.T) {
		filter, err := ParseSaleFilter(map[string]string{
			FilterCustomerName: "*Acme*",
			FilterBranchName:   "Main*",
		})
		require.NoError(t, err)
		assert.Equal(t, "Acme", filter.CustomerName)
		assert.Equal(t, "Main", filter.BranchName)
	})

	t.Run("Plain dates parse to midnight UTC", func(t *testing.T) {
		filter, err := ParseSaleFilter(map[string]string{
			FilterSaleDate: "2026-08-15",
		})
		require.NoError(t, err)
		require.NotNil(t, filter.SaleDate)
		assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), *filter.SaleDate)
	})

	t.Run("Timestamps truncate to calendar date", func(t *testing.T) {
		filter, err := ParseSaleFilter(map[string]string{
			FilterSaleDateStart: "2026-08-15T13:45:00Z",
			FilterSaleDateEnd:   "2026-08-20T01:00:00Z",
		})
		require.NoError(t, err)
		require.NotNil(t, filter.SaleDateStart)
		require.NotNil(t, filter.SaleDateEnd)
		assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), *filter.SaleDateStart)
		assert.Equal(t, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), *filter.SaleDateEnd)
	})

	t.Run("IsCancelled parses booleans", func(t *testing.T) {
		filter, err := ParseSaleFilter(map[string]string{
			FilterIsCancelled: "true",
		})
		require.NoError(t, err)
		require.NotNil(t, filter.IsCancelled)
		assert.True(t, *filter.IsCancelled)
	})

	t.Run("Unknown keys are ignored", func(t *testing.T) {
		filter, err := ParseSaleFilter(map[string]string{
			"TotallyUnknown":   "value",
			FilterCustomerName: "Acme",
		})
		require.NoError(t, err)
		assert.Equal(t, "Acme", filter.CustomerName)
	})

	t.Run("Bad date is an error", func(t *testing.T) {
		_, err := ParseSaleFilter(map[string]string{
			FilterSaleDate: "not-a-date",
		})
		assert.Error(t, err)
	})

	t.Run("Bad boolean is an error", func(t *testing.T) {
		_, err := ParseSaleFilter(map[string]string{
			FilterIsCancelled: "maybe",
		})
		assert.Error(t, err)
	})
}

// TestSaleQueryPagination tests offset arithmetic
func TestSaleQueryPagination(t *testing.T) {
	query := SaleQuery{Page: 3, PageSize: 10}

	assert.Equal(t, int64(20), query.Skip())
	assert.Equal(t, int64(10), query.Limit())

	first := SaleQuery{Page: 1, PageSize: 25}
	assert.Equal(t, int64(0), first.Skip())
}
