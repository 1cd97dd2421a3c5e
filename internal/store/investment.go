package store

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/granaapp/grana/internal/model"
)

type InvestmentStore struct {
	db *sql.DB
}

func NewInvestmentStore(db *sql.DB) *InvestmentStore {
	return &InvestmentStore{db: db}
}

func scanInvestment(scanner interface{ Scan(...any) error }) (*model.Investment, error) {
	var inv model.Investment
	err := scanner.Scan(&inv.ID, &inv.Name, &inv.Type, &inv.Value, &inv.ReturnRate, &inv.Color, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

const investmentCols = `id, name, type, value, return_rate, color, created_at, updated_at`

func (s *InvestmentStore) List(userID int64) ([]model.Investment, error) {
	rows, err := s.db.Query(`SELECT `+investmentCols+` FROM investments WHERE user_id = ? ORDER BY name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	defer rows.Close()

	var investments []model.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan investment: %w", err)
		}
		investments = append(investments, *inv)
	}
	return investments, rows.Err()
}

func (s *InvestmentStore) GetByID(userID, id int64) (*model.Investment, error) {
	row := s.db.QueryRow(`SELECT `+investmentCols+` FROM investments WHERE id = ? AND user_id = ?`, id, userID)
	inv, err := scanInvestment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get investment: %w", err)
	}
	return inv, nil
}

func (s *InvestmentStore) Create(userID int64, name, invType string, value, returnRate decimal.Decimal, color string) (*model.Investment, error) {
	result, err := s.db.Exec(
		`INSERT INTO investments (user_id, name, type, value, return_rate, color) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, name, invType, value, returnRate, color,
	)
	if err != nil {
		return nil, fmt.Errorf("insert investment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(userID, id)
}

func (s *InvestmentStore) Update(userID, id int64, name, invType string, value, returnRate decimal.Decimal, color string) (*model.Investment, error) {
	_, err := s.db.Exec(
		`UPDATE investments SET name = ?, type = ?, value = ?, return_rate = ?, color = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		name, invType, value, returnRate, color, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update investment: %w", err)
	}
	return s.GetByID(userID, id)
}

func (s *InvestmentStore) Delete(userID, id int64) error {
	_, err := s.db.Exec(`DELETE FROM investments WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	return nil
}
