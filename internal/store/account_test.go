package store

import "testing"

func TestAccountCRUD(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db)
	as := NewAccountStore(db)

	a, err := as.Create(userID, "Nubank", "Nubank", dec(t, "1500.00"), dec(t, "200.00"), "#820AD1")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if a.Name != "Nubank" {
		t.Errorf("name = %q, want %q", a.Name, "Nubank")
	}
	if !a.Balance.Equal(dec(t, "1500.00")) {
		t.Errorf("balance = %s, want 1500.00", a.Balance)
	}

	updated, err := as.Update(userID, a.ID, "Nubank", "Nubank", dec(t, "1250.50"), dec(t, "200.00"), "#820AD1")
	if err != nil {
		t.Fatalf("update account: %v", err)
	}
	if !updated.Balance.Equal(dec(t, "1250.50")) {
		t.Errorf("updated balance = %s, want 1250.50", updated.Balance)
	}

	accounts, err := as.List(userID)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}

	if err := as.Delete(userID, a.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	got, err := as.GetByID(userID, a.ID)
	if err != nil {
		t.Fatalf("get deleted account: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted account")
	}
}

func TestAccountScopedToUser(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db)
	otherID, err := NewUserStore(db).Create("other@example.com", "other", "", "h")
	if err != nil {
		t.Fatalf("create second user: %v", err)
	}
	as := NewAccountStore(db)

	a, err := as.Create(userID, "Itaú", "Itaú", dec(t, "100"), dec(t, "0"), "")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	got, err := as.GetByID(otherID.ID, a.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got != nil {
		t.Error("account should not be visible to another user")
	}

	accounts, err := as.List(otherID.ID)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("expected 0 accounts for other user, got %d", len(accounts))
	}
}
