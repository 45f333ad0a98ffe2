package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"getbreak/backend/internal/domain"
	"getbreak/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListActiveProducts(ctx context.Context, category string) ([]domain.Product, error) {
	query := `
		SELECT id, name, category, price, has_variants, active, created_at
		FROM products
		WHERE active = true
	`
	args := []any{}
	if category != "" {
		query += ` AND category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY category, name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.HasVariants, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, price, has_variants, active, created_at
		FROM products
		WHERE id = $1
	`, id).Scan(&product.ID, &product.Name, &product.Category, &product.Price, &product.HasVariants, &product.Active, &product.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	product.CreatedAt = product.CreatedAt.UTC()
	return &product, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product, variants []domain.Variant) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" || product.Category == "" {
		return nil, store.ErrInvalidOrder
	}
	if product.HasVariants && len(variants) == 0 {
		return nil, store.ErrInvalidOrder
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (id, name, category, price, has_variants, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, product.ID, product.Name, product.Category, product.Price, product.HasVariants, product.Active, product.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidOrder
		}
		return nil, err
	}

	for _, v := range variants {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO product_variants (id, product_id, label, price, active)
			VALUES ($1,$2,$3,$4,$5)
		`, v.ID, product.ID, v.Label, v.Price, v.Active)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, store.ErrInvalidOrder
			}
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrPartialWrite, err)
	}

	created := product
	return &created, nil
}

func (s *Store) SetProductActive(ctx context.Context, id string, active bool) (*domain.Product, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET active = $2 WHERE id = $1
	`, id, active)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetProductByID(ctx, id)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_variants WHERE product_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	return tx.Commit()
}

func (s *Store) ListActiveVariants(ctx context.Context, productID string) ([]domain.Variant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, label, price, active
		FROM product_variants
		WHERE product_id = $1 AND active = true
		ORDER BY price
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	variants := make([]domain.Variant, 0, 4)
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Label, &v.Price, &v.Active); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return variants, nil
}

func (s *Store) GetVariantByID(ctx context.Context, productID string, variantID string) (*domain.Variant, error) {
	var variant domain.Variant
	err := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, label, price, active
		FROM product_variants
		WHERE product_id = $1 AND id = $2
	`, productID, variantID).Scan(&variant.ID, &variant.ProductID, &variant.Label, &variant.Price, &variant.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &variant, nil
}

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	if order.ID == "" || len(order.Lines) == 0 {
		return nil, store.ErrInvalidOrder
	}
	for _, line := range order.Lines {
		if line.ProductID == "" || line.Qty < 1 {
			return nil, store.ErrInvalidOrder
		}
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusActive
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (id, business_day_id, total, status, is_being_edited, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING seq
	`, order.ID, order.BusinessDayID, order.Total, order.Status, order.IsBeingEdited, order.CreatedAt).Scan(&order.Seq)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidOrder
		}
		return nil, err
	}

	if err := insertOrderLines(ctx, tx, order.ID, order.Lines); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrPartialWrite, err)
	}

	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
	}
	created := order
	return &created, nil
}

func (s *Store) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, business_day_id, total, status, is_being_edited, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.Seq, &order.BusinessDayID, &order.Total, &order.Status, &order.IsBeingEdited, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	order.CreatedAt = order.CreatedAt.UTC()

	lines, err := s.orderLines(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Lines = lines
	return &order, nil
}

func (s *Store) ListActiveOrders(ctx context.Context, businessDayID string) ([]domain.Order, error) {
	return s.listOrders(ctx, domain.OrderStatusActive, businessDayID, true)
}

func (s *Store) ListCompletedOrders(ctx context.Context, businessDayID string) ([]domain.Order, error) {
	return s.listOrders(ctx, domain.OrderStatusCompleted, businessDayID, false)
}

func (s *Store) listOrders(ctx context.Context, status string, businessDayID string, skipEditing bool) ([]domain.Order, error) {
	query := `
		SELECT id, seq, business_day_id, total, status, is_being_edited, created_at
		FROM orders
		WHERE status = $1
	`
	args := []any{status}
	if businessDayID != "" {
		query += ` AND business_day_id = $2`
		args = append(args, businessDayID)
	}
	if skipEditing {
		query += ` AND is_being_edited = false`
	}
	query += ` ORDER BY created_at DESC, seq DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, 32)
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.Seq, &order.BusinessDayID, &order.Total, &order.Status, &order.IsBeingEdited, &order.CreatedAt); err != nil {
			return nil, err
		}
		order.CreatedAt = order.CreatedAt.UTC()
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		lines, err := s.orderLines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}

	return orders, nil
}

func (s *Store) orderLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, product_id, variant_id, name, qty, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY line_no
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0, 8)
	for rows.Next() {
		var line domain.OrderLine
		var variantID sql.NullString
		if err := rows.Scan(&line.OrderID, &line.ProductID, &variantID, &line.Name, &line.Qty, &line.UnitPrice); err != nil {
			return nil, err
		}
		line.VariantID = variantID.String
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func insertOrderLines(ctx context.Context, tx *sql.Tx, orderID string, lines []domain.OrderLine) error {
	for i, line := range lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, line_no, product_id, variant_id, name, qty, unit_price)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, orderID, i+1, line.ProductID, nullIfEmpty(line.VariantID), line.Name, line.Qty, line.UnitPrice)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ReplaceOrderLines(ctx context.Context, orderID string, lines []domain.OrderLine, total decimal.Decimal) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, store.ErrInvalidOrder
	}
	for _, line := range lines {
		if line.ProductID == "" || line.Qty < 1 {
			return nil, store.ErrInvalidOrder
		}
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET total = $2 WHERE id = $1
	`, orderID, total)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return nil, err
	}
	if err := insertOrderLines(ctx, tx, orderID, lines); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrPartialWrite, err)
	}

	return s.GetOrderByID(ctx, orderID)
}

func (s *Store) SetOrderStatus(ctx context.Context, orderID string, status string) (*domain.Order, error) {
	switch status {
	case domain.OrderStatusActive, domain.OrderStatusCompleted, domain.OrderStatusCancelled:
	default:
		return nil, store.ErrInvalidOrder
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = $2 WHERE id = $1
	`, orderID, status)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetOrderByID(ctx, orderID)
}

func (s *Store) SetOrderEditing(ctx context.Context, orderID string, editing bool) (*domain.Order, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET is_being_edited = $2 WHERE id = $1
	`, orderID, editing)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetOrderByID(ctx, orderID)
}

func (s *Store) GetOpenBusinessDay(ctx context.Context) (*domain.BusinessDay, error) {
	var day domain.BusinessDay
	var closedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, date, is_open, opened_at, closed_at
		FROM business_days
		WHERE is_open = true
	`).Scan(&day.ID, &day.Date, &day.IsOpen, &day.OpenedAt, &closedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	day.OpenedAt = day.OpenedAt.UTC()
	if closedAt.Valid {
		t := closedAt.Time.UTC()
		day.ClosedAt = &t
	}
	return &day, nil
}

func (s *Store) OpenBusinessDay(ctx context.Context, day domain.BusinessDay) (*domain.BusinessDay, error) {
	if day.ID == "" || day.Date == "" {
		return nil, store.ErrInvalidOrder
	}
	if day.OpenedAt.IsZero() {
		day.OpenedAt = time.Now().UTC()
	}
	day.IsOpen = true

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var openCount int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM business_days WHERE is_open = true
	`).Scan(&openCount); err != nil {
		return nil, err
	}
	if openCount > 0 {
		return nil, store.ErrDayAlreadyOpen
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO business_days (id, date, is_open, opened_at)
		VALUES ($1,$2,true,$3)
	`, day.ID, day.Date, day.OpenedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDayAlreadyOpen
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := day
	return &created, nil
}

func (s *Store) CloseBusinessDay(ctx context.Context, dayID string, report domain.DailyReport) (*domain.DailyReport, error) {
	if report.ID == "" || dayID == "" {
		return nil, store.ErrInvalidOrder
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	report.BusinessDayID = dayID

	itemsJSON, err := json.Marshal(report.Items)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE business_days
		SET is_open = false, closed_at = $2
		WHERE id = $1 AND is_open = true
	`, dayID, report.CreatedAt)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM business_days WHERE id = $1)
		`, dayID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, store.ErrNotFound
		}
		return nil, store.ErrNoOpenDay
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO daily_reports (id, business_day_id, report_date, orders_count, total_sales, items, top_item, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, report.ID, dayID, report.ReportDate, report.OrdersCount, report.TotalSales, itemsJSON, report.TopItem, report.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidOrder
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrPartialWrite, err)
	}

	created := report
	return &created, nil
}

func (s *Store) ListDailyReports(ctx context.Context, limit int) ([]domain.DailyReport, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, business_day_id, report_date, orders_count, total_sales, items, top_item, created_at
		FROM daily_reports
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]domain.DailyReport, 0, limit)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reports, nil
}

func (s *Store) GetDailyReportByID(ctx context.Context, id string) (*domain.DailyReport, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, business_day_id, report_date, orders_count, total_sales, items, top_item, created_at
		FROM daily_reports
		WHERE id = $1
	`, id)

	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (s *Store) DeleteDailyReport(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM daily_reports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" || user.Role == "" {
		return store.ErrInvalidOrder
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidOrder
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (domain.DailyReport, error) {
	var report domain.DailyReport
	var itemsJSON []byte
	if err := row.Scan(&report.ID, &report.BusinessDayID, &report.ReportDate, &report.OrdersCount, &report.TotalSales, &itemsJSON, &report.TopItem, &report.CreatedAt); err != nil {
		return domain.DailyReport{}, err
	}
	report.CreatedAt = report.CreatedAt.UTC()
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &report.Items); err != nil {
			return domain.DailyReport{}, err
		}
	}
	if report.Items == nil {
		report.Items = map[string]domain.ReportItem{}
	}
	return report, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}
