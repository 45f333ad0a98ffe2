package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"getbreak/backend/internal/domain"
	"getbreak/backend/internal/store"
)

func TestCloseBusinessDayWritesReportAndClosesDay(t *testing.T) {
	databaseURL := os.Getenv("GETBREAK_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set GETBREAK_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	dayID := fmt.Sprintf("day-close-it-%d", stamp)
	orderID := fmt.Sprintf("ord-close-it-%d", stamp)
	reportID := fmt.Sprintf("rep-close-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM daily_reports WHERE id = $1`, reportID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM business_days WHERE id = $1`, dayID)
	})

	day, err := s.OpenBusinessDay(ctx, domain.BusinessDay{
		ID:   dayID,
		Date: time.Now().UTC().Format("2006-01-02"),
	})
	if err != nil {
		if errors.Is(err, store.ErrDayAlreadyOpen) {
			t.Skip("another business day is open in the test database")
		}
		t.Fatalf("open business day: %v", err)
	}

	order, err := s.CreateOrder(ctx, domain.Order{
		ID:            orderID,
		BusinessDayID: day.ID,
		Total:         domain.NewAmount(decimal.RequireFromString("3.000")),
		Status:        domain.OrderStatusCompleted,
		Lines: []domain.OrderLine{
			{ProductID: "prod-it", Name: "Integration Espresso", Qty: 2, UnitPrice: domain.NewAmount(decimal.RequireFromString("1.500"))},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.Seq < 1 {
		t.Fatalf("expected assigned order seq, got %d", order.Seq)
	}

	report, err := s.CloseBusinessDay(ctx, day.ID, domain.DailyReport{
		ID:          reportID,
		ReportDate:  day.Date,
		OrdersCount: 1,
		TotalSales:  domain.NewAmount(decimal.RequireFromString("3.000")),
		Items: map[string]domain.ReportItem{
			"Integration Espresso": {Qty: 2, Total: domain.NewAmount(decimal.RequireFromString("3.000"))},
		},
		TopItem: "Integration Espresso",
	})
	if err != nil {
		t.Fatalf("close business day: %v", err)
	}

	var isOpen bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT is_open FROM business_days WHERE id = $1
	`, day.ID).Scan(&isOpen); err != nil {
		t.Fatalf("query business day: %v", err)
	}
	if isOpen {
		t.Fatal("expected business day to be closed")
	}

	fetched, err := s.GetDailyReportByID(ctx, report.ID)
	if err != nil {
		t.Fatalf("get daily report: %v", err)
	}
	if fetched.OrdersCount != 1 || !fetched.TotalSales.Equal(decimal.RequireFromString("3.000")) {
		t.Fatalf("unexpected persisted report: %+v", fetched)
	}
	if item := fetched.Items["Integration Espresso"]; item.Qty != 2 {
		t.Fatalf("unexpected report item: %+v", item)
	}

	if _, err := s.CloseBusinessDay(ctx, day.ID, domain.DailyReport{ID: reportID + "-again"}); !errors.Is(err, store.ErrNoOpenDay) {
		t.Fatalf("expected ErrNoOpenDay on second close, got %v", err)
	}
}
