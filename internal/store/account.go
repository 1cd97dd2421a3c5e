package store

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/granaapp/grana/internal/model"
)

type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func scanAccount(scanner interface{ Scan(...any) error }) (*model.Account, error) {
	var a model.Account
	err := scanner.Scan(&a.ID, &a.Name, &a.Bank, &a.Balance, &a.Investments, &a.Color, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const accountCols = `id, name, bank, balance, investments, color, created_at, updated_at`

func (s *AccountStore) List(userID int64) ([]model.Account, error) {
	rows, err := s.db.Query(`SELECT `+accountCols+` FROM accounts WHERE user_id = ? ORDER BY name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (s *AccountStore) GetByID(userID, id int64) (*model.Account, error) {
	row := s.db.QueryRow(`SELECT `+accountCols+` FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *AccountStore) Create(userID int64, name, bank string, balance, investments decimal.Decimal, color string) (*model.Account, error) {
	result, err := s.db.Exec(
		`INSERT INTO accounts (user_id, name, bank, balance, investments, color) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, name, bank, balance, investments, color,
	)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(userID, id)
}

func (s *AccountStore) Update(userID, id int64, name, bank string, balance, investments decimal.Decimal, color string) (*model.Account, error) {
	_, err := s.db.Exec(
		`UPDATE accounts SET name = ?, bank = ?, balance = ?, investments = ?, color = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		name, bank, balance, investments, color, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return s.GetByID(userID, id)
}

func (s *AccountStore) Delete(userID, id int64) error {
	_, err := s.db.Exec(`DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}
