package httpapi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"getbreak/backend/internal/domain"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.UserAccount)
	}
	s.users[user.Username] = user
	return nil
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if ok {
		user.Password = password
		s.users[username] = user
		s.updates++
	}
	return nil
}

func TestLoginAndParseTokenRoundtrip(t *testing.T) {
	stub := &userStoreStub{}
	hash, err := hashPassword("secret-pass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	_ = stub.CreateUser(context.Background(), domain.UserAccount{
		Username:  "admin",
		Password:  hash,
		Role:      "admin",
		Active:    true,
		CreatedAt: time.Now().UTC(),
	})

	auth := NewAuthManager("unit-test-secret", time.Hour, stub)

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "secret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Role != "admin" {
		t.Fatalf("expected admin role, got %s", resp.Role)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.Username != "admin" || actor.Role != "admin" {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	stub := &userStoreStub{}
	hash, _ := hashPassword("secret-pass")
	_ = stub.CreateUser(context.Background(), domain.UserAccount{
		Username: "cashier",
		Password: hash,
		Role:     "cashier",
		Active:   false,
	})

	auth := NewAuthManager("unit-test-secret", time.Hour, stub)

	if _, err := auth.Login(domain.LoginRequest{Username: "cashier", Password: "secret-pass"}); err == nil {
		t.Fatal("expected login to fail for inactive account")
	}
}

func TestBootstrapUpgradesPlainTextPasswords(t *testing.T) {
	stub := &userStoreStub{}
	_ = stub.CreateUser(context.Background(), domain.UserAccount{
		Username: "legacy",
		Password: "plain-text-password",
		Role:     "cashier",
		Active:   true,
	})

	auth := NewAuthManager("unit-test-secret", time.Hour, stub)

	if _, err := auth.Login(domain.LoginRequest{Username: "legacy", Password: "plain-text-password"}); err != nil {
		t.Fatalf("login with upgraded password: %v", err)
	}

	stub.mu.Lock()
	stored := stub.users["legacy"].Password
	updates := stub.updates
	stub.mu.Unlock()
	if !isPasswordHash(stored) {
		t.Fatalf("expected stored password to be hashed, got %s", stored)
	}
	if updates == 0 {
		t.Fatal("expected password upgrade write to the store")
	}
}

func TestCreateCashierValidation(t *testing.T) {
	auth := NewAuthManager("unit-test-secret", time.Hour, &userStoreStub{})

	cases := []domain.CashierCreateRequest{
		{Username: "ab", Password: "longenough"},
		{Username: "has space", Password: "longenough"},
		{Username: "valid-user", Password: "short"},
	}
	for _, req := range cases {
		if _, err := auth.CreateCashier(req); err == nil {
			t.Fatalf("expected validation error for %+v", req)
		}
	}

	created, err := auth.CreateCashier(domain.CashierCreateRequest{Username: "Valid-User", Password: "longenough"})
	if err != nil {
		t.Fatalf("create cashier: %v", err)
	}
	if created.Username != "valid-user" || created.Role != "cashier" {
		t.Fatalf("unexpected cashier: %+v", created)
	}

	if _, err := auth.CreateCashier(domain.CashierCreateRequest{Username: "valid-user", Password: "longenough"}); err == nil {
		t.Fatal("expected duplicate username to be rejected")
	}

	cashiers := auth.ListCashiers()
	found := false
	for _, c := range cashiers {
		if c.Username == "valid-user" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected valid-user in cashier listing, got %+v", cashiers)
	}
}

func TestParseTokenRejectsForeignSignature(t *testing.T) {
	stub := &userStoreStub{}
	hash, _ := hashPassword("secret-pass")
	_ = stub.CreateUser(context.Background(), domain.UserAccount{
		Username: "admin", Password: hash, Role: "admin", Active: true,
	})

	auth := NewAuthManager("unit-test-secret", time.Hour, stub)
	other := NewAuthManager("a-different-secret", time.Hour, stub)

	resp, err := other.Login(domain.LoginRequest{Username: "admin", Password: "secret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := auth.ParseToken(resp.AccessToken); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
	if _, err := auth.ParseToken(strings.Repeat("x", 40)); err == nil {
		t.Fatal("expected garbage token to be rejected")
	}
}
