package client

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/granaapp/grana/internal/model"
	"github.com/granaapp/grana/internal/shopping"
)

// DefaultCategory is where new items land when the form leaves the
// category blank.
const DefaultCategory = "Outros"

// Session is a working copy of one shopping list. Mutations apply to the
// local copy immediately and are reconciled with the server in the
// background; on failure each command rolls back only the state it
// touched, so an unrelated edit made while a request was in flight is
// never lost.
type Session struct {
	client *Client
	listID int64

	mu        sync.Mutex
	list      model.ShoppingList
	items     []model.ShoppingItem
	purchased map[int64]bool
	pending   map[int64]bool
	expanded  map[string]bool
	draft     ItemDraft
	dialog    CompletionDialog
}

// OpenList fetches a list and starts a session over it.
func OpenList(ctx context.Context, c *Client, listID int64) (*Session, error) {
	list, err := c.ShoppingList(ctx, listID)
	if err != nil {
		return nil, err
	}

	s := &Session{
		client: c,
		listID: listID,
		draft:  ItemDraft{Category: DefaultCategory},
		dialog: newCompletionDialog(),
	}
	s.replace(*list)
	return s, nil
}

// replace swaps in fresh server state. Caller must hold s.mu or have
// exclusive access.
func (s *Session) replace(list model.ShoppingList) {
	s.list = list
	s.items = make([]model.ShoppingItem, len(list.Items))
	copy(s.items, list.Items)

	s.purchased = make(map[int64]bool, len(s.items))
	s.expanded = make(map[string]bool)
	for _, item := range s.items {
		s.purchased[item.ID] = item.IsPurchased
		s.expanded[item.Category] = true
	}
	s.pending = make(map[int64]bool)
}

// Refresh discards local state and re-fetches the list from the server.
func (s *Session) Refresh(ctx context.Context) error {
	s.client.invalidateList(s.listID)
	list, err := s.client.ShoppingList(ctx, s.listID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.replace(*list)
	s.mu.Unlock()
	return nil
}

// failAndRefresh resyncs after a failed mutation so the local copy does
// not drift from the server. The refresh error, if any, is attached to
// the original one.
func (s *Session) failAndRefresh(ctx context.Context, opErr error) error {
	return multierr.Append(opErr, s.Refresh(ctx))
}

// List returns the list header as last seen.
func (s *Session) List() model.ShoppingList {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.list
	list.Items = s.viewLocked()
	return list
}

// Items returns the working copy with the local purchased overlay
// applied.
func (s *Session) Items() []model.ShoppingItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() []model.ShoppingItem {
	view := make([]model.ShoppingItem, len(s.items))
	copy(view, s.items)
	for i := range view {
		view[i].IsPurchased = s.purchased[view[i].ID]
	}
	return view
}

// Pending reports whether the item has a mutation in flight.
func (s *Session) Pending(itemID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[itemID]
}

// Progress is the purchased percentage of the working copy.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return shopping.Progress(s.viewLocked())
}

// Groups returns items grouped by category in first-appearance order.
func (s *Session) Groups() []shopping.CategoryGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return shopping.GroupByCategory(s.viewLocked())
}

// TotalEstimated sums the estimates of every item in the working copy.
func (s *Session) TotalEstimated() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return shopping.TotalEstimated(s.viewLocked())
}

// TotalSpent sums spent prices of purchased items in the working copy.
func (s *Session) TotalSpent() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return shopping.TotalSpent(s.viewLocked())
}

// IsExpanded reports whether a category group is open in the UI. Every
// category starts expanded.
func (s *Session) IsExpanded(category string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded[category]
}

// ToggleCategory opens or collapses a category group.
func (s *Session) ToggleCategory(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded[category] = !s.expanded[category]
}

// Draft returns the current add-item form state.
func (s *Session) Draft() ItemDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// SetDraft replaces the add-item form state.
func (s *Session) SetDraft(draft ItemDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = draft
}

func (s *Session) findLocked(itemID int64) (int, bool) {
	for i := range s.items {
		if s.items[i].ID == itemID {
			return i, true
		}
	}
	return -1, false
}
