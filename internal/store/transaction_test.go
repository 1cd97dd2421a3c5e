package store

import (
	"testing"

	"github.com/granaapp/grana/internal/model"
)

func TestTransactionCreateAdjustsBalance(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db)
	as := NewAccountStore(db)
	ts := NewTransactionStore(db)

	a, err := as.Create(userID, "Corrente", "BB", dec(t, "1000.00"), dec(t, "0"), "")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	tr, err := ts.Create(userID, "Mercado", "Mercearia", "2026-08-29", dec(t, "150.75"), model.TransactionExpense, &a.ID)
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if tr.AccountID == nil || *tr.AccountID != a.ID {
		t.Errorf("account_id = %v, want %d", tr.AccountID, a.ID)
	}

	got, _ := as.GetByID(userID, a.ID)
	if !got.Balance.Equal(dec(t, "849.25")) {
		t.Errorf("balance after expense = %s, want 849.25", got.Balance)
	}

	if _, err := ts.Create(userID, "Salário", "Renda", "2026-08-29", dec(t, "3000.00"), model.TransactionIncome, &a.ID); err != nil {
		t.Fatalf("create income: %v", err)
	}
	got, _ = as.GetByID(userID, a.ID)
	if !got.Balance.Equal(dec(t, "3849.25")) {
		t.Errorf("balance after income = %s, want 3849.25", got.Balance)
	}
}

func TestTransactionCreateWithoutAccount(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db)
	ts := NewTransactionStore(db)

	tr, err := ts.Create(userID, "Dinheiro", "Outros", "2026-08-01", dec(t, "20.00"), model.TransactionExpense, nil)
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if tr.AccountID != nil {
		t.Errorf("account_id should be nil, got %v", *tr.AccountID)
	}
}

func TestTransactionUpdateReadjustsBalance(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db)
	as := NewAccountStore(db)
	ts := NewTransactionStore(db)

	a, _ := as.Create(userID, "Corrente", "BB", dec(t, "100.00"), dec(t, "0"), "")
	tr, err := ts.Create(userID, "Mercado", "Mercearia", "2026-08-29", dec(t, "10.00"), model.TransactionExpense, &a.ID)
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	got, _ := as.GetByID(userID, a.ID)
	if !got.Balance.Equal(dec(t, "90.00")) {
		t.Fatalf("balance after expense = %s, want 90.00", got.Balance)
	}

	// Raising the amount must reverse the old 10 and apply the new 50.
	if _, err := ts.Update(userID, tr.ID, "Mercado", "Mercearia", "2026-08-29", dec(t, "50.00"), model.TransactionExpense); err != nil {
		t.Fatalf("update transaction: %v", err)
	}
	got, _ = as.GetByID(userID, a.ID)
	if !got.Balance.Equal(dec(t, "50.00")) {
		t.Errorf("balance after update = %s, want 50.00", got.Balance)
	}

	// Flipping expense to income swings the balance both ways.
	if _, err := ts.Update(userID, tr.ID, "Estorno", "Mercearia", "2026-08-29", dec(t, "50.00"), model.TransactionIncome); err != nil {
		t.Fatalf("update to income: %v", err)
	}
	got, _ = as.GetByID(userID, a.ID)
	if !got.Balance.Equal(dec(t, "150.00")) {
		t.Errorf("balance after type change = %s, want 150.00", got.Balance)
	}
}

func TestTransactionDeleteReversesBalance(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db)
	as := NewAccountStore(db)
	ts := NewTransactionStore(db)

	a, _ := as.Create(userID, "Corrente", "BB", dec(t, "500.00"), dec(t, "0"), "")
	tr, err := ts.Create(userID, "Farmácia", "Outros", "2026-08-10", dec(t, "80.00"), model.TransactionExpense, &a.ID)
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	if err := ts.Delete(userID, tr.ID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}

	got, _ := as.GetByID(userID, a.ID)
	if !got.Balance.Equal(dec(t, "500.00")) {
		t.Errorf("balance after delete = %s, want 500.00", got.Balance)
	}

	deleted, err := ts.GetByID(userID, tr.ID)
	if err != nil {
		t.Fatalf("get deleted transaction: %v", err)
	}
	if deleted != nil {
		t.Error("expected nil for deleted transaction")
	}
}

func TestTransactionListOrdering(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db)
	ts := NewTransactionStore(db)

	ts.Create(userID, "Antiga", "", "2026-07-01", dec(t, "10"), model.TransactionExpense, nil)
	ts.Create(userID, "Recente", "", "2026-08-15", dec(t, "10"), model.TransactionExpense, nil)

	transactions, err := ts.List(userID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(transactions))
	}
	if transactions[0].Description != "Recente" {
		t.Errorf("transactions[0] = %q, want most recent first", transactions[0].Description)
	}
}
