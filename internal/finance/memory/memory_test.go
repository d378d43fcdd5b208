package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"finview/internal/core"
	"finview/internal/finance"
)

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Register(ctx, core.Registration{Username: "alice", Password: "longenough", ConfirmPassword: "longenough"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	pair, err := s.Login(ctx, core.Credentials{Username: "alice", Password: "longenough"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatalf("expected token pair, got %+v", pair)
	}

	if _, err := s.Login(ctx, core.Credentials{Username: "alice", Password: "wrongpass"}); !finance.IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s := New().Seed("alice", "pw")
	_, err := s.Register(ctx, core.Registration{Username: "alice", Password: "longenough", ConfirmPassword: "longenough"})
	if err == nil {
		t.Fatal("expected duplicate username error")
	}
}

func TestTransactionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	cat, err := s.CreateCategory(ctx, core.CategoryInput{Name: "Food"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	txn, err := s.CreateTransaction(ctx, core.TransactionInput{
		Amount:     core.Money{Cents: 4250},
		Type:       core.Expense,
		Date:       core.NewDate(2024, 3, 1),
		CategoryID: &cat.ID,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if txn.CategoryName != "Food" {
		t.Fatalf("expected category name resolved, got %q", txn.CategoryName)
	}

	txns, _ := s.ListTransactions(ctx)
	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns))
	}

	if err := s.DeleteTransaction(ctx, txn.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTransaction(ctx, txn.ID); !finance.IsNotFound(err) {
		t.Fatalf("expected not-found on second delete, got %v", err)
	}
	txns, _ = s.ListTransactions(ctx)
	if len(txns) != 0 {
		t.Fatalf("expected empty list after delete, got %d", len(txns))
	}
}

func TestDeleteCategoryDetachesTransactions(t *testing.T) {
	ctx := context.Background()
	s := New()
	cat, _ := s.CreateCategory(ctx, core.CategoryInput{Name: "Food"})
	txn, _ := s.CreateTransaction(ctx, core.TransactionInput{
		Amount: core.Money{Cents: 100}, Type: core.Expense,
		Date: core.NewDate(2024, 3, 1), CategoryID: &cat.ID,
	})

	if err := s.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	txns, _ := s.ListTransactions(ctx)
	if txns[0].CategoryID != nil {
		t.Fatalf("expected transaction %d detached from category", txn.ID)
	}
	if got := txns[0].DisplayCategory(); got != core.UncategorizedLabel {
		t.Fatalf("expected %q, got %q", core.UncategorizedLabel, got)
	}
}

func TestResetClearsEverything(t *testing.T) {
	ctx := context.Background()
	s := New()
	cat, _ := s.CreateCategory(ctx, core.CategoryInput{Name: "Food"})
	_, _ = s.CreateTransaction(ctx, core.TransactionInput{
		Amount: core.Money{Cents: 100}, Type: core.Expense,
		Date: core.NewDate(2024, 3, 1), CategoryID: &cat.ID,
	})

	detail, err := s.Reset(ctx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if detail == "" {
		t.Fatal("expected a detail message")
	}
	txns, _ := s.ListTransactions(ctx)
	cats, _ := s.ListCategories(ctx)
	if len(txns) != 0 || len(cats) != 0 {
		t.Fatalf("expected empty store, got %d txns %d cats", len(txns), len(cats))
	}
}

func TestExportCSVShape(t *testing.T) {
	ctx := context.Background()
	s := New()
	cat, _ := s.CreateCategory(ctx, core.CategoryInput{Name: "Food"})
	_, _ = s.CreateTransaction(ctx, core.TransactionInput{
		Amount: core.Money{Cents: 4250}, Type: core.Expense,
		Date: core.NewDate(2024, 3, 1), CategoryID: &cat.ID,
	})

	dl, err := s.Export(ctx, "csv")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer dl.Body.Close()
	body, _ := io.ReadAll(dl.Body)
	for _, want := range []string{"Categories", "Transactions", "Food", "42.50"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("csv missing %q:\n%s", want, body)
		}
	}
	if dl.Filename != "data_export.csv" {
		t.Fatalf("unexpected filename %q", dl.Filename)
	}
}
