package app

import (
	"context"
	"fmt"

	"atelier/internal/domain"
	"atelier/internal/engine"
	"atelier/internal/repo"
)

// Notifications classifies every stored project against today.
func (s *Service) Notifications(ctx context.Context) (engine.Classification, error) {
	projects, err := s.Repo.ListProjects(ctx)
	if err != nil {
		return engine.Classification{}, err
	}
	return engine.ClassifyDeadlines(projects, s.Engine.Now(), s.WindowDays), nil
}

func (s *Service) Dashboard(ctx context.Context) (engine.Dashboard, error) {
	projects, err := s.Repo.ListProjects(ctx)
	if err != nil {
		return engine.Dashboard{}, err
	}
	return engine.BuildDashboard(projects, s.Engine.Now(), s.WindowDays), nil
}

func (s *Service) Workshop(ctx context.Context) ([]engine.Lane, error) {
	projects, err := s.Repo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	return engine.WorkshopBoard(projects), nil
}

func (s *Service) Users(ctx context.Context) ([]domain.User, error) {
	return s.Repo.ListUsers(ctx)
}

func (s *Service) Stock(ctx context.Context) ([]domain.StockItem, error) {
	return s.Repo.ListStock(ctx)
}

func (s *Service) LowStock(ctx context.Context) ([]domain.StockItem, error) {
	items, err := s.Repo.ListStock(ctx)
	if err != nil {
		return nil, err
	}
	return engine.LowStock(items), nil
}

// AdjustStock sets the quantity of an existing item.
func (s *Service) AdjustStock(ctx context.Context, id string, quantity float64, actor domain.User) (domain.StockItem, error) {
	items, err := s.Repo.ListStock(ctx)
	if err != nil {
		return domain.StockItem{}, err
	}
	for _, it := range items {
		if it.ID != id {
			continue
		}
		if quantity < 0 {
			return domain.StockItem{}, engine.ValidationError{Field: "quantity", Reason: "must not be negative"}
		}
		it.Quantity = quantity
		if err := s.Repo.UpsertStockItem(ctx, it); err != nil {
			return domain.StockItem{}, err
		}
		s.journal(ctx, "stock.adjusted", "", "stock_item", id, actor, map[string]any{"quantity": quantity})
		return it, nil
	}
	return domain.StockItem{}, fmt.Errorf("stock item %s: %w", id, repo.ErrNotFound)
}

func (s *Service) PurchaseOrders(ctx context.Context) ([]domain.PurchaseOrder, error) {
	return s.Repo.ListPurchaseOrders(ctx)
}

func (s *Service) Events(ctx context.Context, limit int, projectID, evtType string) ([]domain.Event, error) {
	return s.Repo.LatestEvents(ctx, limit, projectID, evtType)
}
