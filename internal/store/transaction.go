package store

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/granaapp/grana/internal/model"
)

type TransactionStore struct {
	db *sql.DB
}

func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

func scanTransaction(scanner interface{ Scan(...any) error }) (*model.Transaction, error) {
	var t model.Transaction
	var accountID sql.NullInt64

	err := scanner.Scan(
		&t.ID, &t.Description, &t.Category, &t.Date, &t.Amount,
		&t.Type, &accountID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if accountID.Valid {
		t.AccountID = &accountID.Int64
	}
	return &t, nil
}

const transactionCols = `id, description, category, date, amount, type, account_id, created_at, updated_at`

func (s *TransactionStore) List(userID int64) ([]model.Transaction, error) {
	rows, err := s.db.Query(
		`SELECT `+transactionCols+` FROM transactions WHERE user_id = ? ORDER BY date DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

func (s *TransactionStore) GetByID(userID, id int64) (*model.Transaction, error) {
	row := s.db.QueryRow(`SELECT `+transactionCols+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// Create inserts a transaction. When an account is given, the account
// balance is adjusted in the same database transaction: income adds to it,
// expense subtracts.
func (s *TransactionStore) Create(userID int64, description, category, date string, amount decimal.Decimal, txType string, accountID *int64) (*model.Transaction, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	id, err := insertTransaction(tx, userID, description, category, date, amount, txType, accountID)
	if err != nil {
		return nil, err
	}

	if accountID != nil {
		if err := applyToBalance(tx, userID, *accountID, amount, txType); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(userID, id)
}

// Update rewrites a transaction. When it is linked to an account, the old
// amount is reversed and the new one applied in the same database
// transaction, so the balance tracks the edit.
func (s *TransactionStore) Update(userID, id int64, description, category, date string, amount decimal.Decimal, txType string) (*model.Transaction, error) {
	existing, err := s.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE transactions SET description = ?, category = ?, date = ?, amount = ?, type = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		description, category, date, amount, txType, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	if existing.AccountID != nil {
		reversed := model.TransactionIncome
		if existing.Type == model.TransactionIncome {
			reversed = model.TransactionExpense
		}
		if err := applyToBalance(tx, userID, *existing.AccountID, existing.Amount, reversed); err != nil {
			return nil, err
		}
		if err := applyToBalance(tx, userID, *existing.AccountID, amount, txType); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(userID, id)
}

// Delete removes a transaction and reverses its balance effect on the
// linked account, if any.
func (s *TransactionStore) Delete(userID, id int64) error {
	t, err := s.GetByID(userID, id)
	if err != nil {
		return err
	}
	if t == nil {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if t.AccountID != nil {
		reversed := model.TransactionIncome
		if t.Type == model.TransactionIncome {
			reversed = model.TransactionExpense
		}
		if err := applyToBalance(tx, userID, *t.AccountID, t.Amount, reversed); err != nil {
			return err
		}
	}

	return tx.Commit()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func insertTransaction(ex execer, userID int64, description, category, date string, amount decimal.Decimal, txType string, accountID *int64) (int64, error) {
	var aID sql.NullInt64
	if accountID != nil {
		aID = sql.NullInt64{Int64: *accountID, Valid: true}
	}

	result, err := ex.Exec(
		`INSERT INTO transactions (user_id, description, category, date, amount, type, account_id) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, description, category, date, amount, txType, aID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// applyToBalance adjusts an account balance by the transaction amount.
// The arithmetic happens on the decimal values, not in SQL, so amounts
// stay exact.
func applyToBalance(ex execer, userID, accountID int64, amount decimal.Decimal, txType string) error {
	var balance decimal.Decimal
	err := ex.QueryRow(`SELECT balance FROM accounts WHERE id = ? AND user_id = ?`, accountID, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return fmt.Errorf("account %d not found", accountID)
	}
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}

	if txType == model.TransactionExpense {
		balance = balance.Sub(amount)
	} else {
		balance = balance.Add(amount)
	}

	_, err = ex.Exec(
		`UPDATE accounts SET balance = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		balance, accountID, userID,
	)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	return nil
}
