package app

import (
	"context"
	"strings"

	"hotel_pms/internal/domain"
)

type InventoryService struct {
	repo domain.InventoryRepository
}

func NewInventoryService(r domain.InventoryRepository) *InventoryService {
	return &InventoryService{repo: r}
}

func (s *InventoryService) CreateItem(ctx context.Context, it domain.InventoryItem) (domain.InventoryItem, error) {
	ve := domain.NewValidationError()
	it.SKU = strings.ToUpper(strings.TrimSpace(it.SKU))
	if it.SKU == "" {
		ve.Add("sku", "required")
	}
	if strings.TrimSpace(it.Name) == "" {
		ve.Add("name", "required")
	}
	if it.Unit == "" {
		it.Unit = "unit"
	}
	if it.Quantity < 0 {
		ve.Add("quantity", "must not be negative")
	}
	if it.ReorderLevel < 0 {
		ve.Add("reorderLevel", "must not be negative")
	}
	if it.UnitCost.IsNegative() {
		ve.Add("unitCost", "must not be negative")
	}
	if err := ve.OrNil(); err != nil {
		return domain.InventoryItem{}, err
	}
	id, err := s.repo.CreateItem(ctx, it)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	return s.repo.GetItem(ctx, id)
}

func (s *InventoryService) GetItem(ctx context.Context, id int64) (domain.InventoryItem, error) {
	return s.repo.GetItem(ctx, id)
}

func (s *InventoryService) ListItems(ctx context.Context, f domain.ItemFilter) ([]domain.InventoryItem, error) {
	return s.repo.ListItems(ctx, f)
}

func (s *InventoryService) UpdateItem(ctx context.Context, id int64, p domain.ItemPatch) (domain.InventoryItem, error) {
	ve := domain.NewValidationError()
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		ve.Add("name", "must not be empty")
	}
	if p.ReorderLevel != nil && *p.ReorderLevel < 0 {
		ve.Add("reorderLevel", "must not be negative")
	}
	if p.UnitCost != nil && p.UnitCost.IsNegative() {
		ve.Add("unitCost", "must not be negative")
	}
	if err := ve.OrNil(); err != nil {
		return domain.InventoryItem{}, err
	}
	if err := s.repo.UpdateItem(ctx, id, p); err != nil {
		return domain.InventoryItem{}, err
	}
	return s.repo.GetItem(ctx, id)
}

func (s *InventoryService) DeleteItem(ctx context.Context, id int64) error {
	return s.repo.DeleteItem(ctx, id)
}

// AdjustStock applies a signed quantity change. The store refuses changes that
// would take stock below zero.
func (s *InventoryService) AdjustStock(ctx context.Context, itemID int64, delta int, reason string) (domain.InventoryItem, error) {
	ve := domain.NewValidationError()
	if delta == 0 {
		ve.Add("delta", "must not be zero")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		ve.Add("reason", "required")
	}
	if err := ve.OrNil(); err != nil {
		return domain.InventoryItem{}, err
	}
	return s.repo.AdjustStock(ctx, domain.StockMovement{
		ItemID: itemID,
		Delta:  delta,
		Reason: reason,
		Actor:  domain.Actor(ctx),
	})
}

func (s *InventoryService) ListMovements(ctx context.Context, itemID int64, limit int) ([]domain.StockMovement, error) {
	if _, err := s.repo.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.repo.ListMovements(ctx, itemID, limit)
}
