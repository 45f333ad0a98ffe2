package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"getbreak/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrNoOpenDay         = errors.New("no open business day")
	ErrDayAlreadyOpen    = errors.New("a business day is already open")
	ErrNoCompletedOrders = errors.New("no completed orders for the open day")
	// ErrPartialWrite marks a multi-step write the store could not complete
	// atomically (e.g. order header without its line items).
	ErrPartialWrite = errors.New("partial write detected")
)

type Repository interface {
	// Catalog.
	ListActiveProducts(ctx context.Context, category string) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product, variants []domain.Variant) (*domain.Product, error)
	SetProductActive(ctx context.Context, id string, active bool) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListActiveVariants(ctx context.Context, productID string) ([]domain.Variant, error)
	GetVariantByID(ctx context.Context, productID string, variantID string) (*domain.Variant, error)

	// Orders. CreateOrder persists the order header and all line items as one
	// atomic write; ReplaceOrderLines swaps the line set and the stored total
	// the same way.
	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	ListActiveOrders(ctx context.Context, businessDayID string) ([]domain.Order, error)
	ListCompletedOrders(ctx context.Context, businessDayID string) ([]domain.Order, error)
	ReplaceOrderLines(ctx context.Context, orderID string, lines []domain.OrderLine, total decimal.Decimal) (*domain.Order, error)
	SetOrderStatus(ctx context.Context, orderID string, status string) (*domain.Order, error)
	SetOrderEditing(ctx context.Context, orderID string, editing bool) (*domain.Order, error)

	// Business days and reports. CloseBusinessDay persists the report and
	// flips the day closed in one transaction.
	GetOpenBusinessDay(ctx context.Context) (*domain.BusinessDay, error)
	OpenBusinessDay(ctx context.Context, day domain.BusinessDay) (*domain.BusinessDay, error)
	CloseBusinessDay(ctx context.Context, dayID string, report domain.DailyReport) (*domain.DailyReport, error)
	ListDailyReports(ctx context.Context, limit int) ([]domain.DailyReport, error)
	GetDailyReportByID(ctx context.Context, id string) (*domain.DailyReport, error)
	DeleteDailyReport(ctx context.Context, id string) error

	// Auth.
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
