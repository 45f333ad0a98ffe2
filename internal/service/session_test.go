package service

import (
	"context"
	"errors"
	"testing"
)

func newTestSession() *Session {
	return NewSession(newTestService())
}

func TestSessionAddItemRequiresVariantSelection(t *testing.T) {
	session := newTestSession()

	_, err := session.AddItem(context.Background(), "prod-latte", "")
	if !errors.Is(err, ErrVariantRequired) {
		t.Fatalf("expected ErrVariantRequired, got %v", err)
	}
}

func TestSessionAddItemMergesRepeatedAdds(t *testing.T) {
	session := newTestSession()
	ctx := context.Background()

	if _, err := session.AddItem(ctx, "prod-espresso", ""); err != nil {
		t.Fatalf("add espresso: %v", err)
	}
	lines, err := session.AddItem(ctx, "prod-espresso", "")
	if err != nil {
		t.Fatalf("add espresso again: %v", err)
	}
	if len(lines) != 1 || lines[0].Qty != 2 {
		t.Fatalf("expected one merged line with qty 2, got %+v", lines)
	}

	// A variant line must stay separate from the base line of another product.
	lines, err = session.AddItem(ctx, "prod-latte", "var-latte-l")
	if err != nil {
		t.Fatalf("add latte large: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %d", len(lines))
	}
	if lines[1].Name != "Latte (Large)" {
		t.Fatalf("expected variant name in line, got %s", lines[1].Name)
	}
}

func TestSessionChangeDue(t *testing.T) {
	session := newTestSession()
	ctx := context.Background()

	if _, err := session.AddItem(ctx, "prod-espresso", ""); err != nil {
		t.Fatalf("add espresso: %v", err)
	}

	change, ok := session.ChangeDue(amount("5.000"))
	if !ok || !change.Equal(amount("3.800")) {
		t.Fatalf("expected change 3.800, got %s ok=%v", change, ok)
	}

	if _, ok := session.ChangeDue(amount("1.000")); ok {
		t.Fatal("expected underpayment to be rejected")
	}
	if _, ok := session.ChangeDue(amount("0")); ok {
		t.Fatal("expected zero payment to be undefined")
	}
}

func TestSessionCheckoutCommitsEditInProgress(t *testing.T) {
	session := newTestSession()
	ctx := context.Background()

	if _, err := session.svc.OpenNewDay(ctx); err != nil {
		t.Fatalf("open day: %v", err)
	}
	if _, err := session.AddItem(ctx, "prod-espresso", ""); err != nil {
		t.Fatalf("add espresso: %v", err)
	}
	order, err := session.Checkout(ctx)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(session.Lines()) != 0 {
		t.Fatal("expected empty cart after checkout")
	}

	if _, err := session.BeginEdit(ctx, order.ID); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if session.EditingOrderID() != order.ID {
		t.Fatalf("expected editing order %s, got %s", order.ID, session.EditingOrderID())
	}
	if _, err := session.AddItem(ctx, "prod-espresso", ""); err != nil {
		t.Fatalf("add during edit: %v", err)
	}

	committed, err := session.Checkout(ctx)
	if err != nil {
		t.Fatalf("commit via checkout: %v", err)
	}
	if committed.ID != order.ID {
		t.Fatalf("expected commit to the edited order, got %s", committed.ID)
	}
	if len(committed.Lines) != 1 || committed.Lines[0].Qty != 2 {
		t.Fatalf("unexpected lines after edit commit: %+v", committed.Lines)
	}
	if session.EditingOrderID() != "" {
		t.Fatal("expected edit state cleared after commit")
	}

	if _, err := session.AbandonEdit(ctx); !errors.Is(err, ErrNoEditInProgress) {
		t.Fatalf("expected ErrNoEditInProgress, got %v", err)
	}
}

func TestSessionRepeatedBeginEditKeepsInProgressChanges(t *testing.T) {
	session := newTestSession()
	ctx := context.Background()

	if _, err := session.svc.OpenNewDay(ctx); err != nil {
		t.Fatalf("open day: %v", err)
	}
	if _, err := session.AddItem(ctx, "prod-espresso", ""); err != nil {
		t.Fatalf("add espresso: %v", err)
	}
	order, err := session.Checkout(ctx)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if _, err := session.BeginEdit(ctx, order.ID); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if _, err := session.AddItem(ctx, "prod-tea", ""); err != nil {
		t.Fatalf("add tea during edit: %v", err)
	}
	if len(session.Lines()) != 2 {
		t.Fatalf("expected 2 lines mid-edit, got %d", len(session.Lines()))
	}

	// A second edit request for the same order (double tap on the order card)
	// must not reload the stored lines over the cashier's changes.
	if _, err := session.BeginEdit(ctx, order.ID); err != nil {
		t.Fatalf("repeat begin edit: %v", err)
	}
	if len(session.Lines()) != 2 {
		t.Fatalf("expected in-progress changes kept, got %d lines", len(session.Lines()))
	}
	if session.EditingOrderID() != order.ID {
		t.Fatalf("expected editing order %s, got %s", order.ID, session.EditingOrderID())
	}

	committed, err := session.Checkout(ctx)
	if err != nil {
		t.Fatalf("commit via checkout: %v", err)
	}
	if len(committed.Lines) != 2 {
		t.Fatalf("expected 2 committed lines, got %+v", committed.Lines)
	}
}
