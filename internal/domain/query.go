package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SortOrder controls the SaleDate sort direction of a listing
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// ParseSortOrder parses a sort order case-insensitively, defaulting
// to ascending for empty or unrecognized input
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(s, string(SortDescending)) || strings.EqualFold(s, "descending") {
		return SortDescending
	}
	return SortAscending
}

// Recognized filter keys. Unknown keys are ignored, not rejected.
const (
	FilterCustomerName  = "CustomerName"
	FilterBranchName    = "BranchName"
	FilterSaleDate      = "SaleDate"
	FilterSaleDateStart = "SaleDateStart"
	FilterSaleDateEnd   = "SaleDateEnd"
	FilterIsCancelled   = "IsCancelled"
)

// SaleFilter is the typed form of a listing's filter map. Date fields
// are calendar dates in UTC with the time of day discarded.
type SaleFilter struct {
	CustomerName  string
	BranchName    string
	SaleDate      *time.Time
	SaleDateStart *time.Time
	SaleDateEnd   *time.Time
	IsCancelled   *bool
}

// ParseSaleFilter converts raw key/value filters into a SaleFilter.
// Name filters match as substrings with wildcard '*' characters
// stripped. Keys that are not recognized are silently dropped.
func ParseSaleFilter(raw map[string]string) (*SaleFilter, error) {
	filter := &SaleFilter{}

	for key, value := range raw {
		switch key {
		case FilterCustomerName:
			filter.CustomerName = stripWildcards(value)
		case FilterBranchName:
			filter.BranchName = stripWildcards(value)
		case FilterSaleDate:
			date, err := parseCalendarDate(value)
			if err != nil {
				return nil, fmt.Errorf("filter %s: %w", key, err)
			}
			filter.SaleDate = &date
		case FilterSaleDateStart:
			date, err := parseCalendarDate(value)
			if err != nil {
				return nil, fmt.Errorf("filter %s: %w", key, err)
			}
			filter.SaleDateStart = &date
		case FilterSaleDateEnd:
			date, err := parseCalendarDate(value)
			if err != nil {
				return nil, fmt.Errorf("filter %s: %w", key, err)
			}
			filter.SaleDateEnd = &date
		case FilterIsCancelled:
			cancelled, err := strconv.ParseBool(strings.ToLower(value))
			if err != nil {
				return nil, fmt.Errorf("filter %s: %w", key, err)
			}
			filter.IsCancelled = &cancelled
		}
	}

	return filter, nil
}

func stripWildcards(s string) string {
	return strings.ReplaceAll(s, "*", "")
}

// parseCalendarDate accepts a plain date or an RFC3339 timestamp and
// truncates it to midnight UTC
func parseCalendarDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}

	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// SaleQuery is the filter/sort/paginate contract consumed by storage.
// Sorting is always by SaleDate; ties are unordered.
type SaleQuery struct {
	Page     int64
	PageSize int64
	Order    SortOrder
	Filter   *SaleFilter
}

// Skip returns the number of records to skip
func (q SaleQuery) Skip() int64 {
	return (q.Page - 1) * q.PageSize
}

// Limit returns the maximum number of records to return
func (q SaleQuery) Limit() int64 {
	return q.PageSize
}
