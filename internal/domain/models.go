package domain

import "time"

// Product is a sellable catalog item. Variant-priced products carry a zero
// base price and HasVariants=true; the price lives on the variants.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       Amount          `json:"price"`
	HasVariants bool            `json:"has_variants"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Variant is a priced size option of a product (e.g. Small/Medium/Large).
type Variant struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Label     string          `json:"label"`
	Price     Amount          `json:"price"`
	Active    bool            `json:"active"`
}

type VariantPriceRequest struct {
	Label string `json:"label"`
	Price string `json:"price"`
}

type ProductCreateRequest struct {
	Name     string                `json:"name"`
	Category string                `json:"category"`
	Price    string                `json:"price,omitempty"`
	Variants []VariantPriceRequest `json:"variants,omitempty"`
}

type ProductToggleRequest struct {
	Active bool `json:"active"`
}

const (
	OrderStatusActive    = "active"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Order is a persisted sale. Total is fixed when the cart is completed and
// only changes through an explicit edit commit. IsBeingEdited hides the order
// from the active listing without touching its lifecycle status.
type Order struct {
	ID            string          `json:"id"`
	Seq           int64           `json:"seq"`
	BusinessDayID string          `json:"business_day_id"`
	Total         Amount          `json:"total"`
	Status        string          `json:"status"`
	IsBeingEdited bool            `json:"is_being_edited"`
	CreatedAt     time.Time       `json:"created_at"`
	Lines         []OrderLine     `json:"lines,omitempty"`
}

// OrderLine snapshots the unit price at the time the item was added to the
// cart. VariantID and Name are persisted so an order reloaded for editing
// reconstructs the same cart line keys the original additions used.
type OrderLine struct {
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	UnitPrice Amount          `json:"unit_price"`
}

// BusinessDay is an explicit trading period. At most one day is open at any
// time; orders created while it is open are tagged with its id.
type BusinessDay struct {
	ID       string     `json:"id"`
	Date     string     `json:"date"`
	IsOpen   bool       `json:"is_open"`
	OpenedAt time.Time  `json:"opened_at"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`
}

// ReportItem accumulates per-product sales inside a daily report.
type ReportItem struct {
	Qty   int             `json:"qty"`
	Total Amount          `json:"total"`
}

// DailyReport is the immutable aggregate written once per close-day.
type DailyReport struct {
	ID            string                `json:"id"`
	BusinessDayID string                `json:"business_day_id"`
	ReportDate    string                `json:"report_date"`
	OrdersCount   int                   `json:"orders_count"`
	TotalSales    Amount                `json:"total_sales"`
	Items         map[string]ReportItem `json:"items"`
	TopItem       string                `json:"top_item"`
	CreatedAt     time.Time             `json:"created_at"`
}

type CartAddRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
}

type CartQtyRequest struct {
	Index int `json:"index"`
	Delta int `json:"delta"`
}

type CartRemoveRequest struct {
	Index int `json:"index"`
}

type CartChangeRequest struct {
	Paid string `json:"paid"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}
