package application

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItemInput is one line item in a create or update command. An ID
// is only meaningful on update, where it preserves item identity
// across the wholesale item replacement.
type SaleItemInput struct {
	ID          string          `json:"id,omitempty" binding:"omitempty,uuid"`
	ProductID   int64           `json:"productId" binding:"required,gt=0"`
	ProductName string          `json:"productName" binding:"required,min=3,max=100"`
	Quantity    int             `json:"quantity" binding:"required,gte=1,lte=20"`
	UnitPrice   decimal.Decimal `json:"unitPrice" binding:"required"`
}

// CreateSaleCommand creates a new sale with its items
type CreateSaleCommand struct {
	SaleDate     time.Time       `json:"saleDate" binding:"required"`
	CustomerID   int64           `json:"customerId" binding:"required,gt=0"`
	CustomerName string          `json:"customerName" binding:"required,min=3,max=100"`
	BranchID     int64           `json:"branchId" binding:"required,gt=0"`
	BranchName   string          `json:"branchName" binding:"required,min=3,max=100"`
	Items        []SaleItemInput `json:"items" binding:"required,min=1,dive"`
}

// UpdateSaleCommand replaces a sale's fields and item collection
// wholesale. The sale number and creation timestamp never change.
type UpdateSaleCommand struct {
	SaleDate     time.Time       `json:"saleDate" binding:"required"`
	CustomerID   int64           `json:"customerId" binding:"required,gt=0"`
	CustomerName string          `json:"customerName" binding:"required,min=3,max=100"`
	BranchID     int64           `json:"branchId" binding:"required,gt=0"`
	BranchName   string          `json:"branchName" binding:"required,min=3,max=100"`
	Items        []SaleItemInput `json:"items" binding:"dive"`
}

// ListSalesQuery is the listing request: pagination, sort direction
// and raw filter key/value pairs
type ListSalesQuery struct {
	Page     int64
	PageSize int64
	Order    string
	Filters  map[string]string
}
