package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/retail-platform/sales-service/internal/domain"
)

// SaleItemDTO is the API representation of a sale line item
type SaleItemDTO struct {
	ID          string          `json:"id"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Discount    decimal.Decimal `json:"discount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// SaleDTO is the API representation of a sale
type SaleDTO struct {
	ID                        string          `json:"id"`
	SaleNumber                string          `json:"saleNumber"`
	SaleDate                  time.Time       `json:"saleDate"`
	CustomerID                int64           `json:"customerId"`
	CustomerName              string          `json:"customerName"`
	BranchID                  int64           `json:"branchId"`
	BranchName                string          `json:"branchName"`
	Items                     []SaleItemDTO   `json:"items"`
	ItemCount                 int             `json:"itemCount"`
	TotalAmountBeforeDiscount decimal.Decimal `json:"totalAmountBeforeDiscount"`
	TotalAmount               decimal.Decimal `json:"totalAmount"`
	IsCancelled               bool            `json:"isCancelled"`
	CreatedAt                 time.Time       `json:"createdAt"`
	UpdatedAt                 *time.Time      `json:"updatedAt,omitempty"`
}

// ToSaleItemDTO converts a domain item to its DTO
func ToSaleItemDTO(item *domain.SaleItem) SaleItemDTO {
	return SaleItemDTO{
		ID:          item.ID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		Discount:    item.Discount,
		TotalAmount: item.TotalAmount,
	}
}

// ToSaleDTO converts a domain sale to its DTO
func ToSaleDTO(sale *domain.Sale) *SaleDTO {
	items := make([]SaleItemDTO, len(sale.Items))
	for i, item := range sale.Items {
		items[i] = ToSaleItemDTO(item)
	}

	return &SaleDTO{
		ID:                        sale.ID,
		SaleNumber:                sale.SaleNumber,
		SaleDate:                  sale.SaleDate,
		CustomerID:                sale.CustomerID,
		CustomerName:              sale.CustomerName,
		BranchID:                  sale.BranchID,
		BranchName:                sale.BranchName,
		Items:                     items,
		ItemCount:                 sale.ItemCount(),
		TotalAmountBeforeDiscount: sale.TotalAmountBeforeDiscount,
		TotalAmount:               sale.TotalAmount,
		IsCancelled:               sale.IsCancelled,
		CreatedAt:                 sale.CreatedAt,
		UpdatedAt:                 sale.UpdatedAt,
	}
}

// itemsFromInputs builds domain items from command inputs, minting a
// fresh identity only when the input carries none
func itemsFromInputs(inputs []SaleItemInput) []*domain.SaleItem {
	items := make([]*domain.SaleItem, len(inputs))
	for i, in := range inputs {
		item := domain.NewSaleItem(in.ProductID, in.ProductName, in.Quantity, in.UnitPrice)
		if in.ID != "" {
			item.ID = in.ID
		}
		items[i] = item
	}
	return items
}
