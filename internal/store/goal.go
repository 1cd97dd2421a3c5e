package store

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/granaapp/grana/internal/model"
)

type GoalStore struct {
	db *sql.DB
}

func NewGoalStore(db *sql.DB) *GoalStore {
	return &GoalStore{db: db}
}

func scanGoal(scanner interface{ Scan(...any) error }) (*model.Goal, error) {
	var g model.Goal
	err := scanner.Scan(&g.ID, &g.Name, &g.Target, &g.Current, &g.Color, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

const goalCols = `id, name, target, current, color, created_at, updated_at`

func (s *GoalStore) List(userID int64) ([]model.Goal, error) {
	rows, err := s.db.Query(`SELECT `+goalCols+` FROM goals WHERE user_id = ? ORDER BY name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func (s *GoalStore) GetByID(userID, id int64) (*model.Goal, error) {
	row := s.db.QueryRow(`SELECT `+goalCols+` FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (s *GoalStore) Create(userID int64, name string, target, current decimal.Decimal, color string) (*model.Goal, error) {
	result, err := s.db.Exec(
		`INSERT INTO goals (user_id, name, target, current, color) VALUES (?, ?, ?, ?, ?)`,
		userID, name, target, current, color,
	)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(userID, id)
}

func (s *GoalStore) Update(userID, id int64, name string, target, current decimal.Decimal, color string) (*model.Goal, error) {
	_, err := s.db.Exec(
		`UPDATE goals SET name = ?, target = ?, current = ?, color = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		name, target, current, color, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return s.GetByID(userID, id)
}

func (s *GoalStore) Delete(userID, id int64) error {
	_, err := s.db.Exec(`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}
