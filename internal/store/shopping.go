package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/granaapp/grana/internal/model"
	"github.com/granaapp/grana/internal/shopping"
)

type ShoppingStore struct {
	db *sql.DB
}

func NewShoppingStore(db *sql.DB) *ShoppingStore {
	return &ShoppingStore{db: db}
}

// --- List methods ---

func scanShoppingList(scanner interface{ Scan(...any) error }) (*model.ShoppingList, error) {
	var l model.ShoppingList
	var month sql.NullString
	var completedAt sql.NullTime

	err := scanner.Scan(&l.ID, &l.Name, &month, &l.Status, &completedAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if month.Valid {
		l.Month = &month.String
	}
	if completedAt.Valid {
		l.CompletedAt = &completedAt.Time
	}
	return &l, nil
}

const shoppingListCols = `id, name, month, status, completed_at, created_at, updated_at`

// ListLists returns the user's lists, optionally narrowed to a status
// and/or month. Empty filters match everything.
func (s *ShoppingStore) ListLists(userID int64, status, month string) ([]model.ShoppingList, error) {
	query := `SELECT ` + shoppingListCols + ` FROM shopping_lists WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if month != "" {
		query += ` AND month = ?`
		args = append(args, month)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shopping lists: %w", err)
	}
	defer rows.Close()

	var lists []model.ShoppingList
	for rows.Next() {
		l, err := scanShoppingList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shopping list: %w", err)
		}
		lists = append(lists, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range lists {
		items, err := s.listItems(s.db, lists[i].ID)
		if err != nil {
			return nil, err
		}
		attachItems(&lists[i], items)
	}
	return lists, nil
}

func (s *ShoppingStore) GetList(userID, id int64) (*model.ShoppingList, error) {
	l, err := s.getList(s.db, userID, id)
	if err != nil || l == nil {
		return l, err
	}

	items, err := s.listItems(s.db, l.ID)
	if err != nil {
		return nil, err
	}
	attachItems(l, items)
	return l, nil
}

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *ShoppingStore) getList(q querier, userID, id int64) (*model.ShoppingList, error) {
	row := q.QueryRow(`SELECT `+shoppingListCols+` FROM shopping_lists WHERE id = ? AND user_id = ?`, id, userID)
	l, err := scanShoppingList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping list: %w", err)
	}
	return l, nil
}

func attachItems(l *model.ShoppingList, items []model.ShoppingItem) {
	l.Items = items
	l.TotalEstimated = shopping.TotalEstimated(items)
	l.TotalSpent = shopping.TotalSpent(items)
}

func (s *ShoppingStore) CreateList(userID int64, name string, month *string) (*model.ShoppingList, error) {
	var m sql.NullString
	if month != nil {
		m = sql.NullString{String: *month, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO shopping_lists (user_id, name, month) VALUES (?, ?, ?)`,
		userID, name, m,
	)
	if err != nil {
		return nil, fmt.Errorf("insert shopping list: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetList(userID, id)
}

func (s *ShoppingStore) RenameList(userID, id int64, name string, month *string) (*model.ShoppingList, error) {
	var m sql.NullString
	if month != nil {
		m = sql.NullString{String: *month, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE shopping_lists SET name = ?, month = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		name, m, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("rename shopping list: %w", err)
	}
	return s.GetList(userID, id)
}

// SetStatus moves a list between active, completed and archived without
// touching transactions. Reopening clears completed_at; completing this
// way stamps it; archiving leaves it alone so a completed list keeps its
// completion time through an archive round trip.
func (s *ShoppingStore) SetStatus(userID, id int64, status string) (*model.ShoppingList, error) {
	var err error
	switch status {
	case model.ListActive:
		_, err = s.db.Exec(
			`UPDATE shopping_lists SET status = ?, completed_at = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
			status, id, userID,
		)
	case model.ListCompleted:
		_, err = s.db.Exec(
			`UPDATE shopping_lists SET status = ?, completed_at = COALESCE(completed_at, ?), updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
			status, time.Now().UTC(), id, userID,
		)
	default:
		_, err = s.db.Exec(
			`UPDATE shopping_lists SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
			status, id, userID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("set list status: %w", err)
	}
	return s.GetList(userID, id)
}

func (s *ShoppingStore) DeleteList(userID, id int64) error {
	_, err := s.db.Exec(`DELETE FROM shopping_lists WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete shopping list: %w", err)
	}
	return nil
}

// DuplicateList creates a fresh active list from an existing one. Only the
// shell is copied; items are not carried over.
func (s *ShoppingStore) DuplicateList(userID, id int64, newName string, newMonth *string) (*model.ShoppingList, error) {
	src, err := s.GetList(userID, id)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, nil
	}
	return s.CreateList(userID, newName, newMonth)
}

// CompleteList marks a list completed and, when requested, materializes
// one expense transaction per category from the purchased items. Purchased
// items contribute their actual price when recorded, their estimate
// otherwise. Everything happens in a single database transaction. A list
// that is already completed is returned unchanged, so retried requests do
// not bill twice.
func (s *ShoppingStore) CompleteList(userID, id int64, createTransactions bool, accountID *int64) (*model.ShoppingList, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	l, err := s.getList(tx, userID, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, nil
	}
	if l.Status == model.ListCompleted {
		items, err := s.listItems(tx, id)
		if err != nil {
			return nil, err
		}
		attachItems(l, items)
		return l, nil
	}

	items, err := s.listItems(tx, id)
	if err != nil {
		return nil, err
	}

	if createTransactions {
		date := time.Now().Format("2006-01-02")
		total := decimal.Zero

		for _, ct := range shopping.AggregateByCategory(items) {
			description := fmt.Sprintf("%s - %s", l.Name, ct.Category)
			if _, err := insertTransaction(tx, userID, description, ct.Category, date, ct.Total, model.TransactionExpense, accountID); err != nil {
				return nil, err
			}
			total = total.Add(ct.Total)
		}

		if accountID != nil && total.Sign() != 0 {
			if err := applyToBalance(tx, userID, *accountID, total, model.TransactionExpense); err != nil {
				return nil, err
			}
		}
	}

	_, err = tx.Exec(
		`UPDATE shopping_lists SET status = ?, completed_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		model.ListCompleted, time.Now().UTC(), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("complete shopping list: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetList(userID, id)
}

// --- Item methods ---

func scanShoppingItem(scanner interface{ Scan(...any) error }) (*model.ShoppingItem, error) {
	var item model.ShoppingItem
	var actualPrice decimal.NullDecimal
	var notes sql.NullString
	var purchased int

	err := scanner.Scan(
		&item.ID, &item.ShoppingListID, &item.Name, &item.Category, &item.Quantity,
		&item.EstimatedPrice, &actualPrice, &purchased, &notes, &item.Order,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.IsPurchased = purchased != 0
	if actualPrice.Valid {
		item.ActualPrice = &actualPrice.Decimal
	}
	if notes.Valid {
		item.Notes = &notes.String
	}
	return &item, nil
}

const shoppingItemCols = `id, shopping_list_id, name, category, quantity, estimated_price, actual_price, is_purchased, notes, item_order, created_at, updated_at`

func (s *ShoppingStore) listItems(q querier, listID int64) ([]model.ShoppingItem, error) {
	rows, err := q.Query(
		`SELECT `+shoppingItemCols+` FROM shopping_items WHERE shopping_list_id = ? ORDER BY item_order ASC, id ASC`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.ShoppingItem
	for rows.Next() {
		item, err := scanShoppingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// GetItem fetches one item, scoped through its list to the owning user.
func (s *ShoppingStore) GetItem(userID, listID, itemID int64) (*model.ShoppingItem, error) {
	row := s.db.QueryRow(
		`SELECT i.id, i.shopping_list_id, i.name, i.category, i.quantity, i.estimated_price, i.actual_price, i.is_purchased, i.notes, i.item_order, i.created_at, i.updated_at
		 FROM shopping_items i
		 JOIN shopping_lists l ON l.id = i.shopping_list_id
		 WHERE i.id = ? AND i.shopping_list_id = ? AND l.user_id = ?`,
		itemID, listID, userID,
	)
	item, err := scanShoppingItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func (s *ShoppingStore) CreateItem(userID, listID int64, name, category, quantity string, estimated decimal.Decimal, notes *string) (*model.ShoppingItem, error) {
	l, err := s.getList(s.db, userID, listID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, nil
	}

	var n sql.NullString
	if notes != nil {
		n = sql.NullString{String: *notes, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO shopping_items (shopping_list_id, name, category, quantity, estimated_price, notes, item_order)
		 VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(item_order), 0) + 1 FROM shopping_items WHERE shopping_list_id = ?))`,
		listID, name, category, quantity, estimated, n, listID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetItem(userID, listID, id)
}

func (s *ShoppingStore) UpdateItem(userID, listID, itemID int64, name, category, quantity string, estimated decimal.Decimal, actual *decimal.Decimal, isPurchased bool, notes *string) (*model.ShoppingItem, error) {
	existing, err := s.GetItem(userID, listID, itemID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	var a decimal.NullDecimal
	if actual != nil {
		a = decimal.NullDecimal{Decimal: *actual, Valid: true}
	}
	var n sql.NullString
	if notes != nil {
		n = sql.NullString{String: *notes, Valid: true}
	}

	_, err = s.db.Exec(
		`UPDATE shopping_items SET name = ?, category = ?, quantity = ?, estimated_price = ?, actual_price = ?, is_purchased = ?, notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, category, quantity, estimated, a, isPurchased, n, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return s.GetItem(userID, listID, itemID)
}

func (s *ShoppingStore) DeleteItem(userID, listID, itemID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM shopping_items
		 WHERE id = ? AND shopping_list_id = ?
		 AND shopping_list_id IN (SELECT id FROM shopping_lists WHERE user_id = ?)`,
		itemID, listID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// --- Category methods ---

type ItemCategory struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

func (s *ShoppingStore) ListCategories() ([]ItemCategory, error) {
	rows, err := s.db.Query(`SELECT id, name, sort_order FROM item_categories ORDER BY sort_order ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []ItemCategory
	for rows.Next() {
		var c ItemCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
