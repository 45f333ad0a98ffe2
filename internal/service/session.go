package service

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"getbreak/backend/internal/cart"
	"getbreak/backend/internal/domain"
)

// ErrNoEditInProgress rejects a commit or abandon when the session is not
// editing a persisted order.
var ErrNoEditInProgress = errors.New("no edit in progress")

// Session is the single cashier terminal's working state: the cart being
// built plus, during an edit, the id of the persisted order it was loaded
// from. Handlers touch it concurrently, so every operation takes the lock.
type Session struct {
	mu             sync.Mutex
	svc            *Service
	cart           *cart.Cart
	editingOrderID string
}

func NewSession(svc *Service) *Session {
	return &Session{
		svc:  svc,
		cart: cart.New(),
	}
}

// AddItem resolves the product (and variant, when given) against the catalog
// and adds one unit to the cart. A variant-priced product requires a
// variantID.
func (s *Session) AddItem(ctx context.Context, productID string, variantID string) ([]cart.Line, error) {
	product, err := s.svc.catalog.GetActiveProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if variantID == "" {
		if product.HasVariants {
			return nil, ErrVariantRequired
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.cart.AddProduct(*product)
		return s.cart.Lines(), nil
	}

	variant, err := s.svc.catalog.GetActiveVariant(ctx, productID, variantID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.AddVariant(*product, *variant)
	return s.cart.Lines(), nil
}

func (s *Session) ChangeQty(index int, delta int) []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.ChangeQty(index, delta)
	return s.cart.Lines()
}

func (s *Session) RemoveLine(index int) []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Remove(index)
	return s.cart.Lines()
}

// Clear empties the cart and drops any edit in progress without saving.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editingOrderID != "" {
		if _, err := s.svc.AbandonEdit(ctx, s.editingOrderID, s.cart); err != nil {
			return err
		}
		s.editingOrderID = ""
		return nil
	}
	s.cart.Clear()
	return nil
}

func (s *Session) Lines() []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

func (s *Session) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

// ChangeDue computes cash change against the current cart total. ok is false
// when the paid amount does not cover the total.
func (s *Session) ChangeDue(paid decimal.Decimal) (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cart.ChangeDue(paid, s.cart.Total())
}

// Checkout persists the cart. During an edit it commits the edit back to the
// loaded order; otherwise it starts a new active order.
func (s *Session) Checkout(ctx context.Context) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editingOrderID != "" {
		order, err := s.svc.CommitEdit(ctx, s.editingOrderID, s.cart)
		if err != nil {
			return nil, err
		}
		s.editingOrderID = ""
		return order, nil
	}

	return s.svc.StartOrder(ctx, s.cart)
}

// BeginEdit loads a persisted active order into the cart. Switching to a
// different order discards any unpersisted cart content, matching the
// terminal's single working area; repeating it for the order already being
// edited leaves the cart as the cashier left it.
func (s *Session) BeginEdit(ctx context.Context, orderID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editingOrderID != "" && s.editingOrderID != orderID {
		if _, err := s.svc.AbandonEdit(ctx, s.editingOrderID, s.cart); err != nil {
			return nil, err
		}
		s.editingOrderID = ""
	}

	order, err := s.svc.EditOrder(ctx, orderID, s.cart)
	if err != nil {
		return nil, err
	}
	s.editingOrderID = order.ID
	return order, nil
}

// AbandonEdit drops the edit and empties the cart; the stored order keeps its
// original lines.
func (s *Session) AbandonEdit(ctx context.Context) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editingOrderID == "" {
		return nil, ErrNoEditInProgress
	}
	order, err := s.svc.AbandonEdit(ctx, s.editingOrderID, s.cart)
	if err != nil {
		return nil, err
	}
	s.editingOrderID = ""
	return order, nil
}

func (s *Session) EditingOrderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editingOrderID
}
