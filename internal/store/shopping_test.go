package store

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/granaapp/grana/internal/model"
)

func TestCategorySeedData(t *testing.T) {
	db := setupTestDB(t)
	ss := NewShoppingStore(db)

	categories, err := ss.ListCategories()
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(categories) != 11 {
		t.Fatalf("expected 11 seed categories, got %d", len(categories))
	}

	expected := []string{
		"Frutas", "Verduras e Legumes", "Carnes e Peixes", "Laticínios", "Padaria",
		"Bebidas", "Limpeza", "Higiene Pessoal", "Mercearia", "Congelados", "Outros",
	}
	for i, name := range expected {
		if categories[i].Name != name {
			t.Errorf("category[%d].Name = %q, want %q", i, categories[i].Name, name)
		}
	}
}

func TestShoppingListCRUD(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db)
	ss := NewShoppingStore(db)

	month := "2026-08"
	l, err := ss.CreateList(userID, "Compras do mês", &month)
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	if l.Name != "Compras do mês" {
		t.Errorf("name = %q, want %q", l.Name, "Compras do mês")
	}
	if l.Status != model.ListActive {
		t.Errorf("status = %q, want %q", l.Status, model.ListActive)
	}
	if l.Month == nil || *l.Month != "2026-08" {
		t.Errorf("month = %v, want 2026-08", l.Month)
	}
	if !l.TotalEstimated.IsZero() || !l.TotalSpent.IsZero() {
		t.Errorf("new list totals = %s/%s, want 0/0", l.TotalEstimated, l.TotalSpent)
	}

	renamed, err := ss.RenameList(userID, l.ID, "Compras de agosto", &month)
	if err != nil {
		t.Fatalf("rename list: %v", err)
	}
	if renamed.Name != "Compras de agosto" {
		t.Errorf("renamed name = %q", renamed.Name)
	}

	lists, err := ss.ListLists(userID, "", "")
	if err != nil {
		t.Fatalf("list lists: %v", err)
	}
	if len(lists) != 1 {
		t.Fatalf("expected 1 list, got %d", len(lists))
	}

	if err := ss.DeleteList(userID, l.ID); err != nil {
		t.Fatalf("delete list: %v", err)
	}
	got, err := ss.GetList(userID, l.ID)
	if err != nil {
		t.Fatalf("get deleted list: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted list")
	}
}

func TestListListsFilters(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db)
	ss := NewShoppingStore(db)

	aug := "2026-08"
	sep := "2026-09"
	ss.CreateList(userID, "Mercado agosto", &aug)
	done, _ := ss.CreateList(userID, "Feira agosto", &aug)
	ss.CreateList(userID, "Mercado setembro", &sep)
	if _, err := ss.CompleteList(userID, done.ID, false, nil); err != nil {
		t.Fatalf("complete list: %v", err)
	}

	all, err := ss.ListLists(userID, "", "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 lists, got %d", len(all))
	}

	active, err := ss.ListLists(userID, model.ListActive, "")
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("expected 2 active lists, got %d", len(active))
	}

	august, err := ss.ListLists(userID, "", "2026-08")
	if err != nil {
		t.Fatalf("list august: %v", err)
	}
	if len(august) != 2 {
		t.Errorf("expected 2 lists for 2026-08, got %d", len(august))
	}

	completedAugust, err := ss.ListLists(userID, model.ListCompleted, "2026-08")
	if err != nil {
		t.Fatalf("list completed august: %v", err)
	}
	if len(completedAugust) != 1 || completedAugust[0].ID != done.ID {
		t.Errorf("expected only the completed august list, got %d", len(completedAugust))
	}
}

func TestShoppingItemCRUDAndTotals(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db)
	ss := NewShoppingStore(db)

	l, _ := ss.CreateList(userID, "Feira", nil)

	banana, err := ss.CreateItem(userID, l.ID, "Banana", "Frutas", "1kg", dec(t, "5.00"), nil)
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if banana.Order != 1 {
		t.Errorf("first item order = %d, want 1", banana.Order)
	}
	if banana.IsPurchased {
		t.Error("new item should not be purchased")
	}

	leite, _ := ss.CreateItem(userID, l.ID, "Leite", "Laticínios", "2", dec(t, "6.00"), nil)
	if leite.Order != 2 {
		t.Errorf("second item order = %d, want 2", leite.Order)
	}

	// Purchase banana with a cheaper actual price.
	actual := dec(t, "4.50")
	updated, err := ss.UpdateItem(userID, l.ID, banana.ID, banana.Name, banana.Category, banana.Quantity, banana.EstimatedPrice, &actual, true, nil)
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	if !updated.IsPurchased {
		t.Error("item should be purchased")
	}
	if updated.ActualPrice == nil || !updated.ActualPrice.Equal(actual) {
		t.Errorf("actual price = %v, want 4.50", updated.ActualPrice)
	}

	got, _ := ss.GetList(userID, l.ID)
	if !got.TotalEstimated.Equal(dec(t, "11.00")) {
		t.Errorf("total estimated = %s, want 11.00", got.TotalEstimated)
	}
	if !got.TotalSpent.Equal(dec(t, "4.50")) {
		t.Errorf("total spent = %s, want 4.50", got.TotalSpent)
	}

	if err := ss.DeleteItem(userID, l.ID, leite.ID); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	got, _ = ss.GetList(userID, l.ID)
	if len(got.Items) != 1 {
		t.Fatalf("expected 1 item after delete, got %d", len(got.Items))
	}
}

func TestShoppingItemScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db)
	other, _ := NewUserStore(db).Create("other@example.com", "other", "", "h")
	ss := NewShoppingStore(db)

	l, _ := ss.CreateList(userID, "Minha lista", nil)
	item, _ := ss.CreateItem(userID, l.ID, "Pão", "Padaria", "", dec(t, "8.00"), nil)

	got, err := ss.GetItem(other.ID, l.ID, item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got != nil {
		t.Error("item should not be visible to another user")
	}

	if _, err := ss.CreateItem(other.ID, l.ID, "Invasor", "Outros", "", dec(t, "1"), nil); err != nil {
		t.Fatalf("create item: %v", err)
	}
	mine, _ := ss.GetList(userID, l.ID)
	if len(mine.Items) != 1 {
		t.Errorf("expected 1 item, another user's insert should be refused, got %d", len(mine.Items))
	}
}

func TestCompleteListCreatesTransactionsPerCategory(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db)
	ss := NewShoppingStore(db)
	as := NewAccountStore(db)
	ts := NewTransactionStore(db)

	account, _ := as.Create(userID, "Corrente", "BB", dec(t, "1000.00"), dec(t, "0"), "")
	l, _ := ss.CreateList(userID, "Mercado", nil)

	banana, _ := ss.CreateItem(userID, l.ID, "Banana", "Frutas", "", dec(t, "5.00"), nil)
	maca, _ := ss.CreateItem(userID, l.ID, "Maçã", "Frutas", "", dec(t, "7.00"), nil)
	leite, _ := ss.CreateItem(userID, l.ID, "Leite", "Laticínios", "", dec(t, "6.00"), nil)
	ss.CreateItem(userID, l.ID, "Sabão", "Limpeza", "", dec(t, "10.00"), nil) // never purchased

	buy := func(item *model.ShoppingItem, actual *decimal.Decimal) {
		t.Helper()
		if _, err := ss.UpdateItem(userID, l.ID, item.ID, item.Name, item.Category, item.Quantity, item.EstimatedPrice, actual, true, nil); err != nil {
			t.Fatalf("purchase %s: %v", item.Name, err)
		}
	}
	actual := dec(t, "4.50")
	buy(banana, &actual)
	buy(maca, nil)
	buy(leite, nil)

	completed, err := ss.CompleteList(userID, l.ID, true, &account.ID)
	if err != nil {
		t.Fatalf("complete list: %v", err)
	}
	if completed.Status != model.ListCompleted {
		t.Errorf("status = %q, want completed", completed.Status)
	}
	if completed.CompletedAt == nil {
		t.Error("completed_at should be set")
	}

	transactions, err := ts.List(userID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(transactions) != 2 {
		t.Fatalf("expected 2 transactions (one per purchased category), got %d", len(transactions))
	}

	byCategory := make(map[string]model.Transaction)
	for _, tr := range transactions {
		byCategory[tr.Category] = tr
	}

	frutas, ok := byCategory["Frutas"]
	if !ok {
		t.Fatal("missing Frutas transaction")
	}
	// 4.50 actual + 7.00 estimate fallback.
	if !frutas.Amount.Equal(dec(t, "11.50")) {
		t.Errorf("Frutas amount = %s, want 11.50", frutas.Amount)
	}
	if frutas.Description != "Mercado - Frutas" {
		t.Errorf("description = %q, want %q", frutas.Description, "Mercado - Frutas")
	}
	if frutas.Type != model.TransactionExpense {
		t.Errorf("type = %q, want expense", frutas.Type)
	}
	if frutas.AccountID == nil || *frutas.AccountID != account.ID {
		t.Errorf("account_id = %v, want %d", frutas.AccountID, account.ID)
	}

	laticinios := byCategory["Laticínios"]
	if !laticinios.Amount.Equal(dec(t, "6.00")) {
		t.Errorf("Laticínios amount = %s, want 6.00", laticinios.Amount)
	}

	// Balance debited by the grand total 17.50.
	got, _ := as.GetByID(userID, account.ID)
	if !got.Balance.Equal(dec(t, "982.50")) {
		t.Errorf("balance = %s, want 982.50", got.Balance)
	}
}

func TestCompleteListWithoutTransactions(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db)
	ss := NewShoppingStore(db)
	ts := NewTransactionStore(db)

	l, _ := ss.CreateList(userID, "Mercado", nil)
	item, _ := ss.CreateItem(userID, l.ID, "Pão", "Padaria", "", dec(t, "8.00"), nil)
	ss.UpdateItem(userID, l.ID, item.ID, item.Name, item.Category, item.Quantity, item.EstimatedPrice, nil, true, nil)

	completed, err := ss.CompleteList(userID, l.ID, false, nil)
	if err != nil {
		t.Fatalf("complete list: %v", err)
	}
	if completed.Status != model.ListCompleted {
		t.Errorf("status = %q, want completed", completed.Status)
	}

	transactions, _ := ts.List(userID)
	if len(transactions) != 0 {
		t.Errorf("expected no transactions, got %d", len(transactions))
	}
}

func TestCompleteListIdempotent(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db)
	ss := NewShoppingStore(db)
	ts := NewTransactionStore(db)

	l, _ := ss.CreateList(userID, "Mercado", nil)
	item, _ := ss.CreateItem(userID, l.ID, "Café", "Mercearia", "", dec(t, "15.00"), nil)
	ss.UpdateItem(userID, l.ID, item.ID, item.Name, item.Category, item.Quantity, item.EstimatedPrice, nil, true, nil)

	first, err := ss.CompleteList(userID, l.ID, true, nil)
	if err != nil {
		t.Fatalf("first complete: %v", err)
	}

	// A retried completion must not bill again.
	second, err := ss.CompleteList(userID, l.ID, true, nil)
	if err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Errorf("completed_at changed on retry: %v vs %v", second.CompletedAt, first.CompletedAt)
	}

	transactions, _ := ts.List(userID)
	if len(transactions) != 1 {
		t.Errorf("expected 1 transaction after retry, got %d", len(transactions))
	}
}

func TestReopenClearsCompletedAt(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db)
	ss := NewShoppingStore(db)

	l, _ := ss.CreateList(userID, "Mercado", nil)
	if _, err := ss.CompleteList(userID, l.ID, false, nil); err != nil {
		t.Fatalf("complete list: %v", err)
	}

	reopened, err := ss.SetStatus(userID, l.ID, model.ListActive)
	if err != nil {
		t.Fatalf("reopen list: %v", err)
	}
	if reopened.Status != model.ListActive {
		t.Errorf("status = %q, want active", reopened.Status)
	}
	if reopened.CompletedAt != nil {
		t.Error("completed_at should be cleared on reopen")
	}
}

func TestArchiveKeepsCompletedAt(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db)
	ss := NewShoppingStore(db)

	l, _ := ss.CreateList(userID, "Mercado", nil)
	completed, _ := ss.CompleteList(userID, l.ID, false, nil)

	archived, err := ss.SetStatus(userID, l.ID, model.ListArchived)
	if err != nil {
		t.Fatalf("archive list: %v", err)
	}
	if archived.Status != model.ListArchived {
		t.Errorf("status = %q, want archived", archived.Status)
	}
	if archived.CompletedAt == nil || !archived.CompletedAt.Equal(*completed.CompletedAt) {
		t.Error("completed_at should survive archiving")
	}
}

func TestDuplicateListCopiesShellOnly(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db)
	ss := NewShoppingStore(db)

	month := "2026-08"
	l, _ := ss.CreateList(userID, "Mercado", &month)
	ss.CreateItem(userID, l.ID, "Banana", "Frutas", "", dec(t, "5.00"), nil)

	newMonth := "2026-09"
	dup, err := ss.DuplicateList(userID, l.ID, "Mercado (Cópia)", &newMonth)
	if err != nil {
		t.Fatalf("duplicate list: %v", err)
	}
	if dup.Name != "Mercado (Cópia)" {
		t.Errorf("name = %q, want %q", dup.Name, "Mercado (Cópia)")
	}
	if dup.Month == nil || *dup.Month != "2026-09" {
		t.Errorf("month = %v, want 2026-09", dup.Month)
	}
	if dup.Status != model.ListActive {
		t.Errorf("status = %q, want active", dup.Status)
	}
	if len(dup.Items) != 0 {
		t.Errorf("duplicate should start empty, got %d items", len(dup.Items))
	}
}

func TestDeleteListCascadesItems(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db)
	ss := NewShoppingStore(db)

	l, _ := ss.CreateList(userID, "Mercado", nil)
	ss.CreateItem(userID, l.ID, "Banana", "Frutas", "", dec(t, "5.00"), nil)

	if err := ss.DeleteList(userID, l.ID); err != nil {
		t.Fatalf("delete list: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM shopping_items`).Scan(&count); err != nil {
		t.Fatalf("count items: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 items after cascade, got %d", count)
	}
}
