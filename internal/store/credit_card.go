package store

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/granaapp/grana/internal/model"
)

type CreditCardStore struct {
	db *sql.DB
}

func NewCreditCardStore(db *sql.DB) *CreditCardStore {
	return &CreditCardStore{db: db}
}

func scanCreditCard(scanner interface{ Scan(...any) error }) (*model.CreditCard, error) {
	var c model.CreditCard
	err := scanner.Scan(&c.ID, &c.Name, &c.Bank, &c.Used, &c.Limit, &c.Color, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const creditCardCols = `id, name, bank, used, credit_limit, color, created_at, updated_at`

func (s *CreditCardStore) List(userID int64) ([]model.CreditCard, error) {
	rows, err := s.db.Query(`SELECT `+creditCardCols+` FROM credit_cards WHERE user_id = ? ORDER BY name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list credit cards: %w", err)
	}
	defer rows.Close()

	var cards []model.CreditCard
	for rows.Next() {
		c, err := scanCreditCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credit card: %w", err)
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

func (s *CreditCardStore) GetByID(userID, id int64) (*model.CreditCard, error) {
	row := s.db.QueryRow(`SELECT `+creditCardCols+` FROM credit_cards WHERE id = ? AND user_id = ?`, id, userID)
	c, err := scanCreditCard(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credit card: %w", err)
	}
	return c, nil
}

func (s *CreditCardStore) Create(userID int64, name, bank string, used, limit decimal.Decimal, color string) (*model.CreditCard, error) {
	result, err := s.db.Exec(
		`INSERT INTO credit_cards (user_id, name, bank, used, credit_limit, color) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, name, bank, used, limit, color,
	)
	if err != nil {
		return nil, fmt.Errorf("insert credit card: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(userID, id)
}

func (s *CreditCardStore) Update(userID, id int64, name, bank string, used, limit decimal.Decimal, color string) (*model.CreditCard, error) {
	_, err := s.db.Exec(
		`UPDATE credit_cards SET name = ?, bank = ?, used = ?, credit_limit = ?, color = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		name, bank, used, limit, color, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update credit card: %w", err)
	}
	return s.GetByID(userID, id)
}

func (s *CreditCardStore) Delete(userID, id int64) error {
	_, err := s.db.Exec(`DELETE FROM credit_cards WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete credit card: %w", err)
	}
	return nil
}
