package client

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/granaapp/grana/internal/model"
)

type DialogState int

const (
	DialogClosed DialogState = iota
	DialogConfirming
	DialogSubmitting
	DialogFailed
)

// NoAccount leaves the grand total off every account balance.
const NoAccount = "none"

// CompletionDialog holds the confirm-completion form: whether to
// materialize expense transactions and which account to debit.
type CompletionDialog struct {
	State              DialogState
	CreateTransactions bool
	AccountID          string
	Err                error
}

func newCompletionDialog() CompletionDialog {
	return CompletionDialog{
		State:              DialogClosed,
		CreateTransactions: true,
		AccountID:          NoAccount,
	}
}

// Dialog returns the current completion dialog state.
func (s *Session) Dialog() CompletionDialog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialog
}

// OpenCompletionDialog resets the form and shows it.
func (s *Session) OpenCompletionDialog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialog = newCompletionDialog()
	s.dialog.State = DialogConfirming
}

// CancelCompletion dismisses the dialog without completing.
func (s *Session) CancelCompletion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialog.State = DialogClosed
	s.dialog.Err = nil
}

// SetCompletionOptions updates the form fields while confirming.
func (s *Session) SetCompletionOptions(createTransactions bool, accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialog.CreateTransactions = createTransactions
	s.dialog.AccountID = accountID
}

// Complete submits the dialog. On success the list state is replaced
// with the completed server copy; on failure the dialog stays open with
// the error so the user can retry or cancel.
func (s *Session) Complete(ctx context.Context) error {
	s.mu.Lock()
	if s.dialog.State != DialogConfirming && s.dialog.State != DialogFailed {
		s.mu.Unlock()
		return nil
	}
	if s.list.Status != model.ListActive {
		s.dialog.State = DialogFailed
		s.dialog.Err = ErrListNotActive
		s.mu.Unlock()
		return ErrListNotActive
	}
	s.dialog.State = DialogSubmitting
	s.dialog.Err = nil
	createTransactions := s.dialog.CreateTransactions
	accountRaw := s.dialog.AccountID
	s.mu.Unlock()

	var accountID *int64
	if accountRaw != "" && accountRaw != NoAccount {
		id, err := strconv.ParseInt(accountRaw, 10, 64)
		if err != nil {
			s.mu.Lock()
			s.dialog.State = DialogFailed
			s.dialog.Err = err
			s.mu.Unlock()
			return err
		}
		accountID = &id
	}

	list, err := s.client.CompleteShoppingList(ctx, s.listID, createTransactions, accountID)

	s.mu.Lock()
	if err != nil {
		s.dialog.State = DialogFailed
		s.dialog.Err = err
		s.mu.Unlock()
		return err
	}
	s.replace(*list)
	s.dialog.State = DialogClosed
	s.mu.Unlock()
	return nil
}

// Reopen puts a completed list back into editing.
func (s *Session) Reopen(ctx context.Context) error {
	list, err := s.client.SetShoppingListStatus(ctx, s.listID, model.ListActive)
	if err != nil {
		return s.failAndRefresh(ctx, err)
	}

	s.mu.Lock()
	s.replace(*list)
	s.mu.Unlock()
	return nil
}

// Archive tucks the list away without touching its completion record.
func (s *Session) Archive(ctx context.Context) error {
	list, err := s.client.SetShoppingListStatus(ctx, s.listID, model.ListArchived)
	if err != nil {
		return s.failAndRefresh(ctx, err)
	}

	s.mu.Lock()
	s.replace(*list)
	s.mu.Unlock()
	return nil
}

// Duplicate starts a fresh copy of this list. Empty arguments fall back
// to "<name> (Cópia)" and the current month.
func (s *Session) Duplicate(ctx context.Context, newName, newMonth string) (*Session, error) {
	s.mu.Lock()
	if newName == "" {
		newName = s.list.Name + " (Cópia)"
	}
	s.mu.Unlock()
	if newMonth == "" {
		newMonth = time.Now().Format("2006-01")
	} else if _, err := time.Parse("2006-01", newMonth); err != nil {
		return nil, fmt.Errorf("%w: month must be YYYY-MM", ErrValidation)
	}

	list, err := s.client.DuplicateShoppingList(ctx, s.listID, newName, newMonth)
	if err != nil {
		return nil, err
	}
	return OpenList(ctx, s.client, list.ID)
}
