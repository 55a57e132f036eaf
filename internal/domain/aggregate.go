package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleItem is one product line within a Sale. Discount and TotalAmount
// are derived fields; they hold whatever the last ApplyDiscounts and
// CalculateTotal produced and are not kept in sync automatically.
type SaleItem struct {
	ID          string          `json:"id"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Discount    decimal.Decimal `json:"discount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// NewSaleItem creates a sale item with a fresh identity
func NewSaleItem(productID int64, productName string, quantity int, unitPrice decimal.Decimal) *SaleItem {
	return &SaleItem{
		ID:          uuid.New().String(),
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Discount:    decimal.Zero,
		TotalAmount: decimal.Zero,
	}
}

// GrossAmount returns quantity times unit price, ignoring discount
func (i *SaleItem) GrossAmount() decimal.Decimal {
	return decimal.NewFromInt(int64(i.Quantity)).Mul(i.UnitPrice)
}

// CalculateTotal recomputes the item's post-discount total
func (i *SaleItem) CalculateTotal() {
	i.TotalAmount = i.GrossAmount().Sub(i.Discount)
}

// Sale is the aggregate root for a retail sale. Totals are derived:
// callers must run ApplyDiscounts and CalculateTotalAmount after any
// item mutation and before persisting.
type Sale struct {
	ID                        string          `json:"id"`
	SaleNumber                string          `json:"saleNumber"`
	SaleDate                  time.Time       `json:"saleDate"`
	CustomerID                int64           `json:"customerId"`
	CustomerName              string          `json:"customerName"`
	BranchID                  int64           `json:"branchId"`
	BranchName                string          `json:"branchName"`
	Items                     []*SaleItem     `json:"items"`
	TotalAmountBeforeDiscount decimal.Decimal `json:"totalAmountBeforeDiscount"`
	TotalAmount               decimal.Decimal `json:"totalAmount"`
	IsCancelled               bool            `json:"isCancelled"`
	CreatedAt                 time.Time       `json:"createdAt"`
	UpdatedAt                 *time.Time      `json:"updatedAt,omitempty"`

	domainEvents []DomainEvent
}

// NewSale creates a sale with a generated identity and sale number.
// The sale date may be in the past but never in the future.
func NewSale(saleDate time.Time, customerID int64, customerName string, branchID int64, branchName string, items []*SaleItem) (*Sale, error) {
	now := time.Now().UTC()

	if saleDate.After(now) {
		return nil, ErrFutureSaleDate
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	sale := &Sale{
		ID:                        uuid.New().String(),
		SaleNumber:                generateSaleNumber(now),
		SaleDate:                  saleDate.UTC(),
		CustomerID:                customerID,
		CustomerName:              customerName,
		BranchID:                  branchID,
		BranchName:                branchName,
		Items:                     items,
		TotalAmountBeforeDiscount: decimal.Zero,
		TotalAmount:               decimal.Zero,
		IsCancelled:               false,
		CreatedAt:                 now,
		domainEvents:              make([]DomainEvent, 0),
	}

	sale.addDomainEvent(&SaleCreatedEvent{
		SaleID:     sale.ID,
		SaleNumber: sale.SaleNumber,
		CreatedAt:  now,
	})

	return sale, nil
}

// generateSaleNumber builds a human-readable sale number of the form
// SALE-<UTC date>-<8 hex chars>. Never regenerated for an existing sale.
func generateSaleNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.New().String()[:8])
	return fmt.Sprintf("SALE-%s-%s", now.Format("20060102"), suffix)
}

// ApplyDiscounts runs the discount policy over every item. A single
// unsupported quantity aborts the whole operation with no item mutated.
func (s *Sale) ApplyDiscounts(policy *DiscountPolicy) error {
	discounts := make([]decimal.Decimal, len(s.Items))

	for idx, item := range s.Items {
		discount, err := policy.CalculateDiscount(item.Quantity, item.UnitPrice)
		if err != nil {
			return fmt.Errorf("item %s: %w", item.ID, err)
		}
		discounts[idx] = discount
	}

	for idx, item := range s.Items {
		item.Discount = discounts[idx]
	}

	return nil
}

// CalculateTotalAmount recomputes both totals from the items.
// Idempotent; safe to call repeatedly.
func (s *Sale) CalculateTotalAmount() {
	before := decimal.Zero
	total := decimal.Zero

	for _, item := range s.Items {
		item.CalculateTotal()
		before = before.Add(item.GrossAmount())
		total = total.Add(item.TotalAmount)
	}

	s.TotalAmountBeforeDiscount = before
	s.TotalAmount = total
}

// Cancel marks the sale as cancelled and stamps UpdatedAt. Cancelling
// an already-cancelled sale re-stamps UpdatedAt but changes nothing
// else and emits no further event.
func (s *Sale) Cancel() {
	now := time.Now().UTC()
	s.UpdatedAt = &now

	if s.IsCancelled {
		return
	}

	s.IsCancelled = true
	s.addDomainEvent(&SaleCancelledEvent{
		SaleID:      s.ID,
		CancelledAt: now,
	})
}

// MarkUpdated stamps UpdatedAt after an update has been applied
func (s *Sale) MarkUpdated() {
	now := time.Now().UTC()
	s.UpdatedAt = &now
}

// ItemCount returns the number of line items
func (s *Sale) ItemCount() int {
	return len(s.Items)
}

// ItemIDs returns the identities of the current item collection
func (s *Sale) ItemIDs() []string {
	ids := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// Domain event helpers
func (s *Sale) addDomainEvent(event DomainEvent) {
	s.domainEvents = append(s.domainEvents, event)
}

// AddDomainEvent records an event raised outside the aggregate's own
// transitions, such as update-path notifications chosen by the caller.
func (s *Sale) AddDomainEvent(event DomainEvent) {
	s.addDomainEvent(event)
}

// DomainEvents returns all pending domain events
func (s *Sale) DomainEvents() []DomainEvent {
	return s.domainEvents
}

// ClearDomainEvents clears all pending domain events
func (s *Sale) ClearDomainEvents() {
	s.domainEvents = make([]DomainEvent, 0)
}
