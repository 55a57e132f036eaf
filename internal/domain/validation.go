package domain

import (
	"fmt"
	"unicode/utf8"
)

// Name length bounds, in characters, shared by customer, branch and
// product names
const (
	NameMinLength = 3
	NameMaxLength = 100
)

func nameLengthInvalid(name string) bool {
	length := utf8.RuneCountInString(name)
	return length < NameMinLength || length > NameMaxLength
}

// FieldError is one violated rule on a named field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult carries the complete, ordered list of violated
// rules. Validation never stops at the first failure.
type ValidationResult struct {
	Errors []FieldError
}

// IsValid reports whether no rule was violated
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) add(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

// FieldMap returns the errors keyed by field name. Later errors on the
// same field overwrite earlier ones.
func (r *ValidationResult) FieldMap() map[string]string {
	fields := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		fields[e.Field] = e.Message
	}
	return fields
}

// Validate performs structural validation of the sale and all items.
// It returns every violated rule rather than failing on the first.
func (s *Sale) Validate() *ValidationResult {
	result := &ValidationResult{}

	if s.SaleNumber == "" {
		result.add("saleNumber", "must not be empty")
	}
	if s.CustomerID <= 0 {
		result.add("customerId", "must be greater than zero")
	}
	if nameLengthInvalid(s.CustomerName) {
		result.add("customerName", fmt.Sprintf("length must be between %d and %d characters", NameMinLength, NameMaxLength))
	}
	if s.BranchID <= 0 {
		result.add("branchId", "must be greater than zero")
	}
	if nameLengthInvalid(s.BranchName) {
		result.add("branchName", fmt.Sprintf("length must be between %d and %d characters", NameMinLength, NameMaxLength))
	}
	if len(s.Items) == 0 {
		result.add("items", "must contain at least one item")
	}

	for idx, item := range s.Items {
		item.validateInto(result, idx)
	}

	return result
}

func (i *SaleItem) validateInto(result *ValidationResult, idx int) {
	prefix := fmt.Sprintf("items[%d].", idx)

	if i.ProductID <= 0 {
		result.add(prefix+"productId", "must be greater than zero")
	}
	if nameLengthInvalid(i.ProductName) {
		result.add(prefix+"productName", fmt.Sprintf("length must be between %d and %d characters", NameMinLength, NameMaxLength))
	}
	if i.Quantity < MinQuantityPerProduct || i.Quantity > MaxQuantityPerProduct {
		result.add(prefix+"quantity", fmt.Sprintf("must be between %d and %d", MinQuantityPerProduct, MaxQuantityPerProduct))
	}
	if !i.UnitPrice.IsPositive() {
		result.add(prefix+"unitPrice", "must be greater than zero")
	}
}
