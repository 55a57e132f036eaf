package application

import (
	"context"
	"fmt"
	"time"

	"github.com/retail-platform/sales-service/internal/domain"
	"github.com/retail-platform/sales-service/pkg/api"
	"github.com/retail-platform/sales-service/pkg/errors"
	"github.com/retail-platform/sales-service/pkg/logging"
)

// SaleListResponse is the paginated listing envelope
type SaleListResponse = api.PageResponse[SaleDTO]

// SaleService handles the sale lifecycle use cases. Every write runs
// validation, then the existence/state precondition, then the domain
// mutation, then persistence, and only after a successful persist are
// notifications published.
type SaleService struct {
	repo      domain.SaleRepository
	publisher domain.EventPublisher
	policy    *domain.DiscountPolicy
	logger    *logging.Logger
}

// NewSaleService creates a new SaleService
func NewSaleService(
	repo domain.SaleRepository,
	publisher domain.EventPublisher,
	policy *domain.DiscountPolicy,
	logger *logging.Logger,
) *SaleService {
	return &SaleService{
		repo:      repo,
		publisher: publisher,
		policy:    policy,
		logger:    logger,
	}
}

// CreateSale creates a new sale with discounts and totals computed
func (s *SaleService) CreateSale(ctx context.Context, cmd CreateSaleCommand) (*SaleDTO, error) {
	items := itemsFromInputs(cmd.Items)

	sale, err := domain.NewSale(cmd.SaleDate, cmd.CustomerID, cmd.CustomerName, cmd.BranchID, cmd.BranchName, items)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if result := sale.Validate(); !result.IsValid() {
		return nil, errors.ErrValidationWithFields("sale validation failed", result.FieldMap())
	}

	if err := sale.ApplyDiscounts(s.policy); err != nil {
		return nil, errors.ErrUnsupportedQuantity(err.Error())
	}
	sale.CalculateTotalAmount()

	if err := s.repo.Create(ctx, sale); err != nil {
		s.logger.WithError(err).Error("Failed to create sale", "saleNumber", sale.SaleNumber)
		return nil, fmt.Errorf("failed to create sale: %w", err)
	}

	s.publishEvents(ctx, sale)

	s.logger.Info("Sale created",
		"saleId", sale.ID,
		"saleNumber", sale.SaleNumber,
		"customerId", sale.CustomerID,
		"itemCount", sale.ItemCount(),
		"totalAmount", sale.TotalAmount,
	)

	return ToSaleDTO(sale), nil
}

// GetSale retrieves a sale by ID
func (s *SaleService) GetSale(ctx context.Context, id string) (*SaleDTO, error) {
	sale, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	if sale == nil {
		return nil, errors.ErrNotFoundWithID("sale", id)
	}
	return ToSaleDTO(sale), nil
}

// ListSales lists sales matching the query, paginated and sorted by
// sale date. A page beyond the data yields an empty result, not an
// error.
func (s *SaleService) ListSales(ctx context.Context, query ListSalesQuery) (*SaleListResponse, error) {
	filter, err := domain.ParseSaleFilter(query.Filters)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = api.DefaultPageRequest().PageSize
	}

	saleQuery := domain.SaleQuery{
		Page:     page,
		PageSize: pageSize,
		Order:    domain.ParseSortOrder(query.Order),
		Filter:   filter,
	}

	sales, err := s.repo.GetAll(ctx, saleQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count sales: %w", err)
	}

	dtos := make([]SaleDTO, len(sales))
	for i, sale := range sales {
		dtos[i] = *ToSaleDTO(sale)
	}

	response := api.NewPageResponse(dtos, page, pageSize, total)
	return &response, nil
}

// UpdateSale replaces a sale's fields and items wholesale. The item
// identity sets before and after decide which notification is emitted.
func (s *SaleService) UpdateSale(ctx context.Context, id string, cmd UpdateSaleCommand) (*SaleDTO, error) {
	if len(cmd.Items) == 0 {
		return nil, errors.ErrPreconditionFailed("sale must contain at least one item")
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	if existing == nil {
		return nil, errors.ErrNotFoundWithID("sale", id)
	}
	if existing.IsCancelled {
		return nil, errors.ErrPreconditionFailed("sale is already cancelled")
	}

	updated := &domain.Sale{
		ID:           existing.ID,
		SaleNumber:   existing.SaleNumber,
		SaleDate:     cmd.SaleDate.UTC(),
		CustomerID:   cmd.CustomerID,
		CustomerName: cmd.CustomerName,
		BranchID:     cmd.BranchID,
		BranchName:   cmd.BranchName,
		Items:        itemsFromInputs(cmd.Items),
		CreatedAt:    existing.CreatedAt,
	}

	if result := updated.Validate(); !result.IsValid() {
		return nil, errors.ErrValidationWithFields("sale validation failed", result.FieldMap())
	}

	if err := updated.ApplyDiscounts(s.policy); err != nil {
		return nil, errors.ErrUnsupportedQuantity(err.Error())
	}
	updated.CalculateTotalAmount()
	updated.MarkUpdated()

	itemsChanged := domain.ItemSetChanged(existing.Items, updated.Items)
	s.recordUpdateEvents(existing, updated, itemsChanged)

	found, err := s.repo.Update(ctx, updated)
	if err != nil {
		s.logger.WithError(err).Error("Failed to update sale", "saleId", id)
		return nil, fmt.Errorf("failed to update sale: %w", err)
	}
	if !found {
		return nil, errors.ErrNotFoundWithID("sale", id)
	}

	s.publishEvents(ctx, updated)

	s.logger.Info("Sale updated",
		"saleId", updated.ID,
		"itemsChanged", itemsChanged,
		"itemCount", updated.ItemCount(),
		"totalAmount", updated.TotalAmount,
	)

	return ToSaleDTO(updated), nil
}

// recordUpdateEvents picks the update notification: a changed item-ID
// set means items were removed or replaced, anything else is a plain
// modification.
func (s *SaleService) recordUpdateEvents(existing, updated *domain.Sale, itemsChanged bool) {
	now := *updated.UpdatedAt

	if !itemsChanged {
		updated.AddDomainEvent(&domain.SaleModifiedEvent{
			SaleID:     updated.ID,
			ModifiedAt: now,
		})
		return
	}

	removed := domain.RemovedItemIDs(existing.Items, updated.Items)
	if len(removed) == 0 {
		// set changed by addition/replacement only
		updated.AddDomainEvent(&domain.ItemCancelledEvent{
			SaleID:      updated.ID,
			CancelledAt: now,
		})
		return
	}

	for _, itemID := range removed {
		updated.AddDomainEvent(&domain.ItemCancelledEvent{
			SaleID:      updated.ID,
			ItemID:      itemID,
			CancelledAt: now,
		})
	}
}

// CancelSale cancels a sale in place. The record is retained with
// IsCancelled set; cancelling a missing or already-cancelled sale
// reports failure without side effects.
func (s *SaleService) CancelSale(ctx context.Context, id string) error {
	active, err := s.repo.ExistsAndNotCancelled(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check sale state: %w", err)
	}
	if !active {
		existing, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get sale: %w", err)
		}
		if existing == nil {
			return errors.ErrNotFoundWithID("sale", id)
		}
		return errors.ErrPreconditionFailed("sale is already cancelled")
	}

	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.WithError(err).Error("Failed to cancel sale", "saleId", id)
		return fmt.Errorf("failed to cancel sale: %w", err)
	}
	if !found {
		return errors.ErrNotFoundWithID("sale", id)
	}

	s.publishEvent(ctx, &domain.SaleCancelledEvent{
		SaleID:      id,
		CancelledAt: time.Now().UTC(),
	})

	s.logger.Info("Sale cancelled", "saleId", id)
	return nil
}

// publishEvents drains the sale's pending events into the sink. The
// mutation is already persisted: publish failures are logged and
// swallowed, never surfaced or retried.
func (s *SaleService) publishEvents(ctx context.Context, sale *domain.Sale) {
	events := sale.DomainEvents()
	switch len(events) {
	case 0:
	case 1:
		s.publishEvent(ctx, events[0])
	default:
		if err := s.publisher.PublishBatch(ctx, events); err != nil {
			s.logger.WithError(err).Warn("Failed to publish event batch",
				"eventCount", len(events),
				"saleId", sale.ID,
			)
		}
	}
	sale.ClearDomainEvents()
}

func (s *SaleService) publishEvent(ctx context.Context, event domain.DomainEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).Warn("Failed to publish event",
			"eventKind", event.Kind(),
			"subjectId", event.SubjectID(),
		)
	}
}
