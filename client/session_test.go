package client

import (
	"context"
	"errors"
	"testing"

	"github.com/granaapp/grana/internal/model"
)

func openTestSession(t *testing.T) (*Session, *fakeAPI) {
	t.Helper()
	c, api := newTestClient(t)
	s, err := OpenList(context.Background(), c, 1)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return s, api
}

func TestTogglePurchasedSendsEstimateAsActual(t *testing.T) {
	s, api := openTestSession(t)

	if err := s.TogglePurchased(context.Background(), 1); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	api.mu.Lock()
	update := api.lastUpdate
	api.mu.Unlock()

	if update.IsPurchased == nil || !*update.IsPurchased {
		t.Fatal("expected is_purchased=true in request")
	}
	if update.ActualPrice == nil || !update.ActualPrice.Equal(decf("4.50")) {
		t.Errorf("actual_price = %v, want estimate 4.50", update.ActualPrice)
	}

	items := s.Items()
	if !items[0].IsPurchased {
		t.Error("item not purchased in working copy")
	}
	if got := s.Progress(); got != 50 {
		t.Errorf("progress = %v, want 50", got)
	}
}

func TestTogglePurchasedKeepsRecordedPriceOnUncheck(t *testing.T) {
	s, api := openTestSession(t)
	ctx := context.Background()

	if err := s.TogglePurchased(ctx, 1); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := s.SetActualPrice(ctx, 1, decf("3.80")); err != nil {
		t.Fatalf("set price: %v", err)
	}
	if err := s.TogglePurchased(ctx, 1); err != nil {
		t.Fatalf("uncheck: %v", err)
	}

	api.mu.Lock()
	update := api.lastUpdate
	api.mu.Unlock()

	if update.IsPurchased == nil || *update.IsPurchased {
		t.Fatal("expected is_purchased=false in request")
	}
	if update.ActualPrice == nil || !update.ActualPrice.Equal(decf("3.80")) {
		t.Errorf("actual_price = %v, want recorded 3.80", update.ActualPrice)
	}

	items := s.Items()
	if items[0].ActualPrice == nil || !items[0].ActualPrice.Equal(decf("3.80")) {
		t.Error("recorded price lost on uncheck")
	}
}

func TestToggleFailureRevertsOnlyCheckbox(t *testing.T) {
	s, api := openTestSession(t)

	api.mu.Lock()
	api.failUpdate = true
	api.mu.Unlock()

	err := s.TogglePurchased(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error")
	}

	items := s.Items()
	if items[0].IsPurchased {
		t.Error("checkbox not reverted after failure")
	}
	// The optimistic price default stays; only the checkbox rolls back.
	if items[0].ActualPrice == nil || !items[0].ActualPrice.Equal(decf("4.50")) {
		t.Errorf("actual price = %v, want preserved 4.50", items[0].ActualPrice)
	}
}

func TestSubmitDraftClearsFormAndAppends(t *testing.T) {
	s, _ := openTestSession(t)

	s.SetDraft(ItemDraft{Name: "Leite", Category: "Laticínios", Quantity: "2", EstimatedPrice: decf("6.00")})
	item, err := s.SubmitDraft(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if item.Name != "Leite" {
		t.Errorf("item name = %q", item.Name)
	}

	draft := s.Draft()
	if draft.Name != "" || draft.Category != DefaultCategory {
		t.Errorf("draft not reset: %+v", draft)
	}
	if len(s.Items()) != 3 {
		t.Errorf("items = %d, want 3", len(s.Items()))
	}
}

func TestSubmitDraftFailureRestoresForm(t *testing.T) {
	s, api := openTestSession(t)

	api.mu.Lock()
	api.failCreate = true
	api.mu.Unlock()

	original := ItemDraft{Name: "Leite", Category: "Laticínios", Quantity: "2", EstimatedPrice: decf("6.00")}
	s.SetDraft(original)

	if _, err := s.SubmitDraft(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	draft := s.Draft()
	if draft.Name != "Leite" || draft.Category != "Laticínios" {
		t.Errorf("draft not restored: %+v", draft)
	}
	if len(s.Items()) != 2 {
		t.Errorf("items = %d, want 2", len(s.Items()))
	}
}

func TestDeleteItemOptimistic(t *testing.T) {
	s, _ := openTestSession(t)

	if err := s.DeleteItem(context.Background(), 1); err != nil {
		t.Fatalf("delete: %v", err)
	}

	items := s.Items()
	if len(items) != 1 || items[0].ID != 2 {
		t.Errorf("unexpected items: %s", itemNames(items))
	}
}

func TestDeleteItemFailureReinsertsInOrder(t *testing.T) {
	s, api := openTestSession(t)

	api.mu.Lock()
	api.failDelete = true
	api.mu.Unlock()

	if err := s.DeleteItem(context.Background(), 1); err == nil {
		t.Fatal("expected error")
	}

	items := s.Items()
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].ID != 1 || items[1].ID != 2 {
		t.Errorf("order not restored: %s", itemNames(items))
	}
}

func TestCompleteDialogFlow(t *testing.T) {
	s, _ := openTestSession(t)
	ctx := context.Background()

	if s.Dialog().State != DialogClosed {
		t.Fatal("dialog should start closed")
	}

	s.OpenCompletionDialog()
	dialog := s.Dialog()
	if dialog.State != DialogConfirming {
		t.Fatalf("state = %v, want confirming", dialog.State)
	}
	if !dialog.CreateTransactions || dialog.AccountID != NoAccount {
		t.Errorf("unexpected defaults: %+v", dialog)
	}

	if err := s.Complete(ctx); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if s.Dialog().State != DialogClosed {
		t.Error("dialog should close on success")
	}
	if s.List().Status != model.ListCompleted {
		t.Errorf("status = %q, want completed", s.List().Status)
	}
}

func TestCompleteFailureKeepsDialogOpen(t *testing.T) {
	s, api := openTestSession(t)
	ctx := context.Background()

	api.mu.Lock()
	api.failComplete = true
	api.mu.Unlock()

	s.OpenCompletionDialog()
	if err := s.Complete(ctx); err == nil {
		t.Fatal("expected error")
	}

	dialog := s.Dialog()
	if dialog.State != DialogFailed {
		t.Fatalf("state = %v, want failed", dialog.State)
	}
	if dialog.Err == nil {
		t.Error("dialog should carry the error")
	}

	// Retry after the server recovers.
	api.mu.Lock()
	api.failComplete = false
	api.mu.Unlock()

	if err := s.Complete(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if s.Dialog().State != DialogClosed {
		t.Error("dialog should close after successful retry")
	}
}

func TestCompleteRejectsNonActiveList(t *testing.T) {
	s, _ := openTestSession(t)
	ctx := context.Background()

	s.OpenCompletionDialog()
	if err := s.Complete(ctx); err != nil {
		t.Fatalf("complete: %v", err)
	}

	s.OpenCompletionDialog()
	if err := s.Complete(ctx); !errors.Is(err, ErrListNotActive) {
		t.Fatalf("err = %v, want ErrListNotActive", err)
	}
	if s.Dialog().State != DialogFailed {
		t.Error("dialog should report the failure")
	}
}

func TestSubmitDraftValidation(t *testing.T) {
	s, api := openTestSession(t)

	s.SetDraft(ItemDraft{Name: "", Quantity: "1", EstimatedPrice: decf("6.00")})
	if _, err := s.SubmitDraft(context.Background()); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if api.count("POST", "/shopping-lists/1/items") != 0 {
		t.Error("invalid draft should not reach the server")
	}
	if s.Draft().EstimatedPrice.IsZero() {
		t.Error("invalid draft should be kept for correction")
	}
}

func TestSubmitDraftRequiresQuantity(t *testing.T) {
	s, api := openTestSession(t)

	s.SetDraft(ItemDraft{Name: "Leite", Category: "Laticínios", Quantity: ""})
	if _, err := s.SubmitDraft(context.Background()); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation for empty quantity", err)
	}
	if api.count("POST", "/shopping-lists/1/items") != 0 {
		t.Error("draft without quantity should not reach the server")
	}
	if s.Draft().Name != "Leite" {
		t.Error("invalid draft should be kept for correction")
	}
}

func TestSubmitDraftExpandsCategory(t *testing.T) {
	s, _ := openTestSession(t)
	ctx := context.Background()

	// Existing categories start expanded; a collapsed one reopens when an
	// item lands in it.
	if !s.IsExpanded("Frutas") {
		t.Error("existing category should start expanded")
	}
	s.ToggleCategory("Frutas")
	if s.IsExpanded("Frutas") {
		t.Fatal("toggle should collapse the category")
	}

	s.SetDraft(ItemDraft{Name: "Uva", Category: "Frutas", Quantity: "1kg", EstimatedPrice: decf("9.00")})
	if _, err := s.SubmitDraft(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !s.IsExpanded("Frutas") {
		t.Error("adding an item should expand its category")
	}

	// A brand-new category is expanded too.
	s.SetDraft(ItemDraft{Name: "Pão", Category: "Padaria", Quantity: "6", EstimatedPrice: decf("8.00")})
	if _, err := s.SubmitDraft(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !s.IsExpanded("Padaria") {
		t.Error("new category should be expanded after adding to it")
	}
}

func TestReopenAndArchive(t *testing.T) {
	s, _ := openTestSession(t)
	ctx := context.Background()

	s.OpenCompletionDialog()
	if err := s.Complete(ctx); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := s.Reopen(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := s.List().Status; got != model.ListActive {
		t.Errorf("status = %q, want active", got)
	}

	if err := s.Archive(ctx); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if got := s.List().Status; got != model.ListArchived {
		t.Errorf("status = %q, want archived", got)
	}
}

func TestDuplicateDefaults(t *testing.T) {
	s, api := openTestSession(t)

	dup, err := s.Duplicate(context.Background(), "", "")
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if dup == nil {
		t.Fatal("expected a session over the copy")
	}

	if api.count("POST", "/shopping-lists/1/duplicate") != 1 {
		t.Error("duplicate endpoint not called")
	}
}

func TestDuplicateRejectsBadMonth(t *testing.T) {
	s, api := openTestSession(t)

	if _, err := s.Duplicate(context.Background(), "", "2026-13"); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if api.count("POST", "/shopping-lists/1/duplicate") != 0 {
		t.Error("invalid month should not reach the server")
	}
}
