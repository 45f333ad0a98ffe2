package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"getbreak/backend/internal/cart"
	"getbreak/backend/internal/catalog"
	"getbreak/backend/internal/domain"
	"getbreak/backend/internal/report"
	"getbreak/backend/internal/store"
)

var (
	// ErrEmptyOrder rejects a checkout of a cart with no lines.
	ErrEmptyOrder = errors.New("order has no lines")
	// ErrVariantRequired rejects adding a variant-priced product without
	// picking one of its variants.
	ErrVariantRequired = errors.New("variant selection required")
	ErrOrderNotActive  = errors.New("order is not active")
	// ErrForbidden rejects an operation the actor's role does not allow.
	ErrForbidden = errors.New("admin role required")
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo            store.Repository
	catalog         *catalog.Provider
	autoOpenNextDay bool
}

func New(repo store.Repository, catalogProvider *catalog.Provider, autoOpenNextDay bool) *Service {
	return &Service{
		repo:            repo,
		catalog:         catalogProvider,
		autoOpenNextDay: autoOpenNextDay,
	}
}

func (s *Service) Catalog() *catalog.Provider {
	return s.catalog
}

// StartOrder persists the cart as a new active order tagged with the open
// business day. The cart is left untouched on any failure so the cashier can
// retry without re-entering items.
func (s *Service) StartOrder(ctx context.Context, c *cart.Cart) (*domain.Order, error) {
	if c.IsEmpty() {
		return nil, ErrEmptyOrder
	}

	day, err := s.requireOpenDay(ctx)
	if err != nil {
		return nil, err
	}

	orderID := uuid.NewString()
	order := domain.Order{
		ID:            orderID,
		BusinessDayID: day.ID,
		Total:         domain.NewAmount(c.Total()),
		Status:        domain.OrderStatusActive,
		CreatedAt:     time.Now().UTC(),
		Lines:         c.OrderLines(orderID),
	}

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	c.Clear()
	return created, nil
}

// EditOrder marks an active order as being edited and loads its lines into
// the cart. Calling it again while the edit is in progress is a no-op: the
// cart keeps whatever the cashier has changed since the edit began.
func (s *Service) EditOrder(ctx context.Context, orderID string, c *cart.Cart) (*domain.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusActive {
		return nil, ErrOrderNotActive
	}
	if order.IsBeingEdited {
		return order, nil
	}

	order, err = s.repo.SetOrderEditing(ctx, orderID, true)
	if err != nil {
		return nil, err
	}

	c.LoadFromOrder(order.Lines)
	return order, nil
}

// CommitEdit replaces the order's lines and total with the cart content and
// returns the order to the active listing. The cart is cleared on success.
func (s *Service) CommitEdit(ctx context.Context, orderID string, c *cart.Cart) (*domain.Order, error) {
	if c.IsEmpty() {
		return nil, ErrEmptyOrder
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusActive {
		return nil, ErrOrderNotActive
	}

	if _, err := s.repo.ReplaceOrderLines(ctx, orderID, c.OrderLines(orderID), c.Total()); err != nil {
		return nil, err
	}
	order, err = s.repo.SetOrderEditing(ctx, orderID, false)
	if err != nil {
		return nil, err
	}

	c.Clear()
	return order, nil
}

// AbandonEdit drops the in-progress edit without touching the stored lines.
func (s *Service) AbandonEdit(ctx context.Context, orderID string, c *cart.Cart) (*domain.Order, error) {
	order, err := s.repo.SetOrderEditing(ctx, orderID, false)
	if err != nil {
		return nil, err
	}
	c.Clear()
	return order, nil
}

// CompleteOrder marks an active order as paid. Completing an already
// completed order is a no-op; a cancelled order cannot be completed.
func (s *Service) CompleteOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case domain.OrderStatusCompleted:
		return order, nil
	case domain.OrderStatusCancelled:
		return nil, ErrOrderNotActive
	}

	return s.repo.SetOrderStatus(ctx, orderID, domain.OrderStatusCompleted)
}

// CancelOrder voids an active order. Cancelling twice is a no-op; a completed
// order cannot be cancelled.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case domain.OrderStatusCancelled:
		return order, nil
	case domain.OrderStatusCompleted:
		return nil, ErrOrderNotActive
	}

	return s.repo.SetOrderStatus(ctx, orderID, domain.OrderStatusCancelled)
}

// ListActiveOrders returns the open day's active orders, newest first. A read
// failure degrades to an empty listing so the cashier screen stays usable.
func (s *Service) ListActiveOrders(ctx context.Context) ([]domain.Order, error) {
	day, err := s.repo.GetOpenBusinessDay(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []domain.Order{}, nil
		}
		log.Printf("[service] WARN: open day lookup failed: %v", err)
		return []domain.Order{}, nil
	}

	orders, err := s.repo.ListActiveOrders(ctx, day.ID)
	if err != nil {
		log.Printf("[service] WARN: active order listing failed day=%s: %v", day.ID, err)
		return []domain.Order{}, nil
	}
	return orders, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.repo.GetOrderByID(ctx, orderID)
}

func (s *Service) GetOpenDay(ctx context.Context) (*domain.BusinessDay, error) {
	day, err := s.repo.GetOpenBusinessDay(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNoOpenDay
		}
		return nil, err
	}
	return day, nil
}

// OpenNewDay starts a trading period. The store rejects a second open day.
func (s *Service) OpenNewDay(ctx context.Context) (*domain.BusinessDay, error) {
	now := time.Now().UTC()
	return s.repo.OpenBusinessDay(ctx, domain.BusinessDay{
		ID:       uuid.NewString(),
		Date:     now.Format("2006-01-02"),
		OpenedAt: now,
	})
}

// CloseDay aggregates the open day's completed orders into a daily report and
// closes the day in one store transaction. A day with no completed orders
// stays open and the call fails with ErrNoCompletedOrders.
func (s *Service) CloseDay(ctx context.Context) (*domain.DailyReport, error) {
	day, err := s.requireOpenDay(ctx)
	if err != nil {
		return nil, err
	}

	completed, err := s.repo.ListCompletedOrders(ctx, day.ID)
	if err != nil {
		return nil, err
	}
	if len(completed) == 0 {
		return nil, store.ErrNoCompletedOrders
	}

	summary := report.Aggregate(completed)
	persisted, err := s.repo.CloseBusinessDay(ctx, day.ID, domain.DailyReport{
		ID:          uuid.NewString(),
		ReportDate:  day.Date,
		OrdersCount: summary.OrdersCount,
		TotalSales:  domain.NewAmount(summary.TotalSales),
		Items:       summary.Items,
		TopItem:     summary.TopItem,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if s.autoOpenNextDay {
		if _, err := s.OpenNewDay(ctx); err != nil {
			log.Printf("[service] WARN: auto-open of next day failed: %v", err)
		}
	}

	return persisted, nil
}

func (s *Service) ListReports(ctx context.Context, limit int) ([]domain.DailyReport, error) {
	return s.repo.ListDailyReports(ctx, limit)
}

func (s *Service) GetReport(ctx context.Context, id string) (*domain.DailyReport, error) {
	return s.repo.GetDailyReportByID(ctx, id)
}

func (s *Service) DeleteReport(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return ErrForbidden
	}
	return s.repo.DeleteDailyReport(ctx, id)
}

func (s *Service) requireOpenDay(ctx context.Context) (*domain.BusinessDay, error) {
	day, err := s.repo.GetOpenBusinessDay(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNoOpenDay
		}
		return nil, err
	}
	return day, nil
}
