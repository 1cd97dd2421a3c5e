package client

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/granaapp/grana/internal/model"
)

var ErrItemNotFound = errors.New("item not in session")

// command is one optimistic mutation. apply updates the working copy and
// runs under the session lock; commit reconciles with the server; invert
// undoes apply when commit fails, and must touch only the state apply
// touched.
type command struct {
	apply  func()
	commit func(ctx context.Context) error
	invert func()
}

func (s *Session) run(ctx context.Context, cmd command) error {
	s.mu.Lock()
	cmd.apply()
	s.mu.Unlock()

	if err := cmd.commit(ctx); err != nil {
		s.mu.Lock()
		cmd.invert()
		s.mu.Unlock()
		return err
	}
	return nil
}

// TogglePurchased flips an item's checkbox optimistically. Checking an
// item with no recorded price defaults its actual price to the estimate;
// unchecking keeps whatever price was recorded. On failure only the
// checkbox is reverted, so a price the user typed while the request was
// in flight survives.
func (s *Session) TogglePurchased(ctx context.Context, itemID int64) error {
	s.mu.Lock()
	if _, ok := s.findLocked(itemID); !ok {
		s.mu.Unlock()
		return ErrItemNotFound
	}
	s.mu.Unlock()

	var (
		was    bool
		update ItemUpdate
	)
	return s.run(ctx, command{
		apply: func() {
			idx, ok := s.findLocked(itemID)
			if !ok {
				return
			}
			was = s.purchased[itemID]
			will := !was
			s.purchased[itemID] = will
			s.pending[itemID] = true

			update = ItemUpdate{IsPurchased: &will}
			if will && s.items[idx].ActualPrice == nil {
				price := s.items[idx].EstimatedPrice
				s.items[idx].ActualPrice = &price
			}
			if s.items[idx].ActualPrice != nil {
				price := *s.items[idx].ActualPrice
				update.ActualPrice = &price
			}
		},
		commit: func(ctx context.Context) error {
			updated, err := s.client.UpdateItem(ctx, s.listID, itemID, update)
			if err != nil {
				return err
			}
			s.mu.Lock()
			delete(s.pending, itemID)
			if idx, ok := s.findLocked(itemID); ok {
				s.items[idx] = *updated
				s.purchased[itemID] = updated.IsPurchased
			}
			s.mu.Unlock()
			return nil
		},
		invert: func() {
			delete(s.pending, itemID)
			s.purchased[itemID] = was
		},
	})
}

// SetActualPrice records what an item really cost.
func (s *Session) SetActualPrice(ctx context.Context, itemID int64, price decimal.Decimal) error {
	s.mu.Lock()
	if _, ok := s.findLocked(itemID); !ok {
		s.mu.Unlock()
		return ErrItemNotFound
	}
	s.mu.Unlock()

	if price.IsNegative() {
		return fmt.Errorf("%w: actual price cannot be negative", ErrValidation)
	}

	var previous *decimal.Decimal
	return s.run(ctx, command{
		apply: func() {
			idx, ok := s.findLocked(itemID)
			if !ok {
				return
			}
			previous = s.items[idx].ActualPrice
			s.items[idx].ActualPrice = &price
			s.pending[itemID] = true
		},
		commit: func(ctx context.Context) error {
			updated, err := s.client.UpdateItem(ctx, s.listID, itemID, ItemUpdate{ActualPrice: &price})
			if err != nil {
				return err
			}
			s.mu.Lock()
			delete(s.pending, itemID)
			if idx, ok := s.findLocked(itemID); ok {
				s.items[idx] = *updated
			}
			s.mu.Unlock()
			return nil
		},
		invert: func() {
			delete(s.pending, itemID)
			if idx, ok := s.findLocked(itemID); ok {
				s.items[idx].ActualPrice = previous
			}
		},
	})
}

// SubmitDraft sends the add-item form. The form clears immediately so
// the user can keep typing; it is restored if the request fails. A draft
// that fails validation is kept as-is for correction.
func (s *Session) SubmitDraft(ctx context.Context) (*model.ShoppingItem, error) {
	s.mu.Lock()
	draft := s.draft
	s.mu.Unlock()

	if draft.Name == "" {
		return nil, fmt.Errorf("%w: item name is required", ErrValidation)
	}
	if draft.Quantity == "" {
		return nil, fmt.Errorf("%w: quantity is required", ErrValidation)
	}
	if draft.EstimatedPrice.IsNegative() {
		return nil, fmt.Errorf("%w: estimated price cannot be negative", ErrValidation)
	}
	if draft.Category == "" {
		draft.Category = DefaultCategory
	}

	var item *model.ShoppingItem
	err := s.run(ctx, command{
		apply: func() {
			s.draft = ItemDraft{Category: DefaultCategory}
		},
		commit: func(ctx context.Context) error {
			created, err := s.client.AddItem(ctx, s.listID, draft)
			if err != nil {
				return err
			}
			item = created
			s.mu.Lock()
			s.items = append(s.items, *created)
			s.purchased[created.ID] = created.IsPurchased
			// The new item's group opens so the user sees what they added.
			s.expanded[created.Category] = true
			s.mu.Unlock()
			return nil
		},
		invert: func() {
			s.draft = draft
		},
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes an item optimistically and puts it back in order if
// the server refuses.
func (s *Session) DeleteItem(ctx context.Context, itemID int64) error {
	s.mu.Lock()
	if _, ok := s.findLocked(itemID); !ok {
		s.mu.Unlock()
		return ErrItemNotFound
	}
	s.mu.Unlock()

	var (
		removed      model.ShoppingItem
		wasPurchased bool
	)
	return s.run(ctx, command{
		apply: func() {
			idx, ok := s.findLocked(itemID)
			if !ok {
				return
			}
			removed = s.items[idx]
			wasPurchased = s.purchased[itemID]
			s.items = append(s.items[:idx], s.items[idx+1:]...)
			delete(s.purchased, itemID)
		},
		commit: func(ctx context.Context) error {
			return s.client.DeleteItem(ctx, s.listID, itemID)
		},
		invert: func() {
			s.items = append(s.items, removed)
			sort.SliceStable(s.items, func(i, j int) bool {
				if s.items[i].Order != s.items[j].Order {
					return s.items[i].Order < s.items[j].Order
				}
				return s.items[i].ID < s.items[j].ID
			})
			s.purchased[itemID] = wasPurchased
		},
	})
}

// RenameItem updates an item's name and category.
func (s *Session) RenameItem(ctx context.Context, itemID int64, name, category string) error {
	if name == "" {
		return fmt.Errorf("%w: item name is required", ErrValidation)
	}

	update := ItemUpdate{Name: &name}
	if category != "" {
		update.Category = &category
	}

	updated, err := s.client.UpdateItem(ctx, s.listID, itemID, update)
	if err != nil {
		return s.failAndRefresh(ctx, err)
	}

	s.mu.Lock()
	if idx, ok := s.findLocked(itemID); ok {
		s.items[idx] = *updated
	}
	s.mu.Unlock()
	return nil
}
