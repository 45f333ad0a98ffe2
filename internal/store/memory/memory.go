package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"getbreak/backend/internal/domain"
	"getbreak/backend/internal/store"
)

type Store struct {
	mu               sync.RWMutex
	products         map[string]domain.Product
	variantsByProd   map[string][]domain.Variant
	ordersByID       map[string]*domain.Order
	orderSeq         int64
	businessDaysByID map[string]domain.BusinessDay
	reportsByID      map[string]domain.DailyReport
	usersByUsername  map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func price(s string) domain.Amount {
	return domain.NewAmount(decimal.RequireFromString(s))
}

func NewSeeded() *Store {
	now := time.Now().UTC()
	products := []domain.Product{
		{ID: "prod-espresso", Name: "Espresso", Category: "drink", Price: price("1.200"), Active: true, CreatedAt: now},
		{ID: "prod-latte", Name: "Latte", Category: "drink", HasVariants: true, Active: true, CreatedAt: now},
		{ID: "prod-cappuccino", Name: "Cappuccino", Category: "drink", HasVariants: true, Active: true, CreatedAt: now},
		{ID: "prod-tea", Name: "Karak Tea", Category: "drink", Price: price("0.800"), Active: true, CreatedAt: now},
		{ID: "prod-water", Name: "Mineral Water", Category: "drink", Price: price("0.300"), Active: true, CreatedAt: now},
		{ID: "prod-club", Name: "Club Sandwich", Category: "food", Price: price("2.500"), Active: true, CreatedAt: now},
		{ID: "prod-shawarma", Name: "Chicken Shawarma", Category: "food", Price: price("1.500"), Active: true, CreatedAt: now},
		{ID: "prod-croissant", Name: "Cheese Croissant", Category: "food", Price: price("1.100"), Active: true, CreatedAt: now},
		{ID: "prod-cake", Name: "Date Cake", Category: "food", Price: price("1.800"), Active: true, CreatedAt: now},
	}

	variants := map[string][]domain.Variant{
		"prod-latte": {
			{ID: "var-latte-s", ProductID: "prod-latte", Label: "Small", Price: price("1.500"), Active: true},
			{ID: "var-latte-m", ProductID: "prod-latte", Label: "Medium", Price: price("1.900"), Active: true},
			{ID: "var-latte-l", ProductID: "prod-latte", Label: "Large", Price: price("2.300"), Active: true},
		},
		"prod-cappuccino": {
			{ID: "var-capp-s", ProductID: "prod-cappuccino", Label: "Small", Price: price("1.600"), Active: true},
			{ID: "var-capp-l", ProductID: "prod-cappuccino", Label: "Large", Price: price("2.400"), Active: true},
		},
	}

	productMap := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}

	return &Store{
		products:         productMap,
		variantsByProd:   variants,
		ordersByID:       make(map[string]*domain.Order),
		businessDaysByID: make(map[string]domain.BusinessDay),
		reportsByID:      make(map[string]domain.DailyReport),
		usersByUsername:  seedUsers(),
	}
}

func (s *Store) ListActiveProducts(_ context.Context, category string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !p.Active {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Category, b.Category)
	})

	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product, variants []domain.Variant) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" || product.Category == "" {
		return nil, store.ErrInvalidOrder
	}
	if product.HasVariants && len(variants) == 0 {
		return nil, store.ErrInvalidOrder
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return nil, store.ErrInvalidOrder
	}

	s.products[product.ID] = product
	if len(variants) > 0 {
		stored := make([]domain.Variant, len(variants))
		copy(stored, variants)
		s.variantsByProd[product.ID] = stored
	}

	created := product
	return &created, nil
}

func (s *Store) SetProductActive(_ context.Context, id string, active bool) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	product.Active = active
	s.products[id] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.products, id)
	delete(s.variantsByProd, id)
	return nil
}

func (s *Store) ListActiveVariants(_ context.Context, productID string) ([]domain.Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	variants := make([]domain.Variant, 0, len(s.variantsByProd[productID]))
	for _, v := range s.variantsByProd[productID] {
		if v.Active {
			variants = append(variants, v)
		}
	}
	return variants, nil
}

func (s *Store) GetVariantByID(_ context.Context, productID string, variantID string) (*domain.Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.variantsByProd[productID] {
		if v.ID == variantID {
			copyVariant := v
			return &copyVariant, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	if order.ID == "" || len(order.Lines) == 0 {
		return nil, store.ErrInvalidOrder
	}
	if err := validateLines(order.Lines); err != nil {
		return nil, err
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusActive
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ordersByID[order.ID]; exists {
		return nil, store.ErrInvalidOrder
	}

	s.orderSeq++
	order.Seq = s.orderSeq
	stored := cloneOrder(order)
	s.ordersByID[order.ID] = &stored
	created := cloneOrder(stored)
	return &created, nil
}

func (s *Store) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.ordersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyOrder := cloneOrder(*order)
	return &copyOrder, nil
}

func (s *Store) ListActiveOrders(_ context.Context, businessDayID string) ([]domain.Order, error) {
	return s.listOrders(domain.OrderStatusActive, businessDayID, true)
}

func (s *Store) ListCompletedOrders(_ context.Context, businessDayID string) ([]domain.Order, error) {
	return s.listOrders(domain.OrderStatusCompleted, businessDayID, false)
}

func (s *Store) listOrders(status string, businessDayID string, skipEditing bool) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.Order, 0, len(s.ordersByID))
	for _, order := range s.ordersByID {
		if order.Status != status {
			continue
		}
		if businessDayID != "" && order.BusinessDayID != businessDayID {
			continue
		}
		if skipEditing && order.IsBeingEdited {
			continue
		}
		orders = append(orders, cloneOrder(*order))
	}

	// Newest first; seq breaks same-timestamp ties deterministically.
	slices.SortFunc(orders, func(a, b domain.Order) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return int(b.Seq - a.Seq)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})

	return orders, nil
}

func (s *Store) ReplaceOrderLines(_ context.Context, orderID string, lines []domain.OrderLine, total decimal.Decimal) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, store.ErrInvalidOrder
	}
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.ordersByID[orderID]
	if !exists {
		return nil, store.ErrNotFound
	}

	replacement := make([]domain.OrderLine, len(lines))
	copy(replacement, lines)
	for i := range replacement {
		replacement[i].OrderID = orderID
	}
	order.Lines = replacement
	order.Total = domain.NewAmount(total)

	updated := cloneOrder(*order)
	return &updated, nil
}

func (s *Store) SetOrderStatus(_ context.Context, orderID string, status string) (*domain.Order, error) {
	switch status {
	case domain.OrderStatusActive, domain.OrderStatusCompleted, domain.OrderStatusCancelled:
	default:
		return nil, store.ErrInvalidOrder
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.ordersByID[orderID]
	if !exists {
		return nil, store.ErrNotFound
	}
	order.Status = status

	updated := cloneOrder(*order)
	return &updated, nil
}

func (s *Store) SetOrderEditing(_ context.Context, orderID string, editing bool) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.ordersByID[orderID]
	if !exists {
		return nil, store.ErrNotFound
	}
	order.IsBeingEdited = editing

	updated := cloneOrder(*order)
	return &updated, nil
}

func (s *Store) GetOpenBusinessDay(_ context.Context) (*domain.BusinessDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, day := range s.businessDaysByID {
		if day.IsOpen {
			copyDay := day
			return &copyDay, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) OpenBusinessDay(_ context.Context, day domain.BusinessDay) (*domain.BusinessDay, error) {
	if day.ID == "" || day.Date == "" {
		return nil, store.ErrInvalidOrder
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.businessDaysByID {
		if existing.IsOpen {
			return nil, store.ErrDayAlreadyOpen
		}
	}

	day.IsOpen = true
	if day.OpenedAt.IsZero() {
		day.OpenedAt = time.Now().UTC()
	}
	s.businessDaysByID[day.ID] = day
	created := day
	return &created, nil
}

func (s *Store) CloseBusinessDay(_ context.Context, dayID string, report domain.DailyReport) (*domain.DailyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day, exists := s.businessDaysByID[dayID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if !day.IsOpen {
		return nil, store.ErrNoOpenDay
	}

	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	report.BusinessDayID = dayID

	closedAt := report.CreatedAt
	day.IsOpen = false
	day.ClosedAt = &closedAt
	s.businessDaysByID[dayID] = day
	s.reportsByID[report.ID] = cloneReport(report)

	created := cloneReport(report)
	return &created, nil
}

func (s *Store) ListDailyReports(_ context.Context, limit int) ([]domain.DailyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	reports := make([]domain.DailyReport, 0, len(s.reportsByID))
	for _, report := range s.reportsByID {
		reports = append(reports, cloneReport(report))
	}

	slices.SortFunc(reports, func(a, b domain.DailyReport) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}

func (s *Store) GetDailyReportByID(_ context.Context, id string) (*domain.DailyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, exists := s.reportsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyReport := cloneReport(report)
	return &copyReport, nil
}

func (s *Store) DeleteDailyReport(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reportsByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.reportsByID, id)
	return nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" {
		return store.ErrInvalidOrder
	}
	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrInvalidOrder
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

// validateLines rejects zero/negative quantities and duplicate
// (product, variant) pairs within one order.
func validateLines(lines []domain.OrderLine) error {
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if line.ProductID == "" || line.Qty < 1 {
			return store.ErrInvalidOrder
		}
		key := line.ProductID + "|" + line.VariantID
		if _, dup := seen[key]; dup {
			return store.ErrInvalidOrder
		}
		seen[key] = struct{}{}
	}
	return nil
}

func cloneOrder(order domain.Order) domain.Order {
	lines := make([]domain.OrderLine, len(order.Lines))
	copy(lines, order.Lines)
	order.Lines = lines
	return order
}

func cloneReport(report domain.DailyReport) domain.DailyReport {
	items := make(map[string]domain.ReportItem, len(report.Items))
	for name, item := range report.Items {
		items[name] = item
	}
	report.Items = items
	return report
}

func cmpString(a, b string) int {
	return strings.Compare(a, b)
}
