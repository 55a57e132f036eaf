package domain

import "time"

// EventKind identifies a sale lifecycle notification
type EventKind string

const (
	EventKindSaleCreated   EventKind = "SaleCreated"
	EventKindSaleModified  EventKind = "SaleModified"
	EventKindSaleCancelled EventKind = "SaleCancelled"
	EventKindItemCancelled EventKind = "ItemCancelled"
)

// DomainEvent is the base interface for all domain events
type DomainEvent interface {
	Kind() EventKind
	SubjectID() string
	OccurredAt() time.Time
}

// SaleCreatedEvent is emitted when a new sale is created
type SaleCreatedEvent struct {
	SaleID     string    `json:"saleId"`
	SaleNumber string    `json:"saleNumber"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (e *SaleCreatedEvent) Kind() EventKind       { return EventKindSaleCreated }
func (e *SaleCreatedEvent) SubjectID() string     { return e.SaleID }
func (e *SaleCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// SaleModifiedEvent is emitted when a sale's fields change without
// altering the set of item identities
type SaleModifiedEvent struct {
	SaleID     string    `json:"saleId"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

func (e *SaleModifiedEvent) Kind() EventKind       { return EventKindSaleModified }
func (e *SaleModifiedEvent) SubjectID() string     { return e.SaleID }
func (e *SaleModifiedEvent) OccurredAt() time.Time { return e.ModifiedAt }

// SaleCancelledEvent is emitted when a sale is cancelled
type SaleCancelledEvent struct {
	SaleID      string    `json:"saleId"`
	CancelledAt time.Time `json:"cancelledAt"`
}

func (e *SaleCancelledEvent) Kind() EventKind       { return EventKindSaleCancelled }
func (e *SaleCancelledEvent) SubjectID() string     { return e.SaleID }
func (e *SaleCancelledEvent) OccurredAt() time.Time { return e.CancelledAt }

// ItemCancelledEvent is emitted when an update removes or replaces
// items in a sale. The subject is the removed item when one is known,
// otherwise the sale itself.
type ItemCancelledEvent struct {
	SaleID      string    `json:"saleId"`
	ItemID      string    `json:"itemId,omitempty"`
	CancelledAt time.Time `json:"cancelledAt"`
}

func (e *ItemCancelledEvent) Kind() EventKind { return EventKindItemCancelled }
func (e *ItemCancelledEvent) SubjectID() string {
	if e.ItemID != "" {
		return e.ItemID
	}
	return e.SaleID
}
func (e *ItemCancelledEvent) OccurredAt() time.Time { return e.CancelledAt }
