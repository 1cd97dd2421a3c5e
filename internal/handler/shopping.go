package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/granaapp/grana/internal/auth"
	"github.com/granaapp/grana/internal/events"
	"github.com/granaapp/grana/internal/model"
	"github.com/granaapp/grana/internal/store"
	"github.com/granaapp/grana/internal/websocket"
)

type ShoppingHandler struct {
	shopping  *store.ShoppingStore
	hub       *websocket.Hub
	publisher *events.Publisher
}

func NewShoppingHandler(ss *store.ShoppingStore, hub *websocket.Hub, publisher *events.Publisher) *ShoppingHandler {
	return &ShoppingHandler{shopping: ss, hub: hub, publisher: publisher}
}

func (h *ShoppingHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// --- Lists ---

type shoppingListRequest struct {
	Name  string  `json:"name"`
	Month *string `json:"month"`
}

type shoppingListUpdateRequest struct {
	Name   *string `json:"name"`
	Month  *string `json:"month"`
	Status *string `json:"status"`
}

func validMonth(s string) bool {
	_, err := time.Parse("2006-01", s)
	return err == nil
}

// ListLists returns the user's lists, filtered by the optional status and
// month query parameters.
func (h *ShoppingHandler) ListLists(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", model.ListActive, model.ListCompleted, model.ListArchived:
	default:
		writeError(w, http.StatusBadRequest, "status must be active, completed or archived")
		return
	}
	month := r.URL.Query().Get("month")
	if month != "" && !validMonth(month) {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}

	lists, err := h.shopping.ListLists(auth.UserID(r.Context()), status, month)
	if err != nil {
		slog.Error("list shopping lists", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list shopping lists")
		return
	}
	if lists == nil {
		lists = []model.ShoppingList{}
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *ShoppingHandler) GetList(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	list, err := h.shopping.GetList(auth.UserID(r.Context()), id)
	if err != nil {
		slog.Error("get shopping list", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get shopping list")
		return
	}
	if list == nil {
		writeError(w, http.StatusNotFound, "shopping list not found")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ShoppingHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req shoppingListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Month != nil && *req.Month != "" && !validMonth(*req.Month) {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}

	list, err := h.shopping.CreateList(auth.UserID(r.Context()), req.Name, req.Month)
	if err != nil {
		slog.Error("create shopping list", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create shopping list")
		return
	}

	h.broadcast(websocket.NewMessage("shopping_list", "created", list.ID, nil))
	writeJSON(w, http.StatusCreated, list)
}

// UpdateList handles renames and status transitions. Completing a list may
// also materialize expense transactions, driven by the create_transactions
// and account_id query parameters.
func (h *ShoppingHandler) UpdateList(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	userID := auth.UserID(r.Context())
	existing, err := h.shopping.GetList(userID, id)
	if err != nil {
		slog.Error("get shopping list", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get shopping list")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "shopping list not found")
		return
	}

	var req shoppingListUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Status != nil {
		h.updateStatus(w, r, userID, existing, *req.Status)
		return
	}

	if req.Name == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}
	name := strings.TrimSpace(*req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	month := existing.Month
	if req.Month != nil {
		if *req.Month != "" && !validMonth(*req.Month) {
			writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		month = req.Month
	}

	list, err := h.shopping.RenameList(userID, id, name, month)
	if err != nil {
		slog.Error("rename shopping list", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update shopping list")
		return
	}

	h.broadcast(websocket.NewMessage("shopping_list", "updated", list.ID, nil))
	writeJSON(w, http.StatusOK, list)
}

func (h *ShoppingHandler) updateStatus(w http.ResponseWriter, r *http.Request, userID int64, existing *model.ShoppingList, status string) {
	switch status {
	case model.ListCompleted:
		createTransactions := r.URL.Query().Get("create_transactions") == "true"
		var accountID *int64
		if raw := r.URL.Query().Get("account_id"); raw != "" && raw != "none" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid account_id")
				return
			}
			accountID = &id
		}

		list, err := h.shopping.CompleteList(userID, existing.ID, createTransactions, accountID)
		if err != nil {
			slog.Error("complete shopping list", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to complete shopping list")
			return
		}

		h.broadcast(websocket.NewMessage("shopping_list", "completed", list.ID, nil))
		if err := h.publisher.Publish(r.Context(), events.ShoppingListCompleted, map[string]any{
			"list_id":     list.ID,
			"name":        list.Name,
			"total_spent": list.TotalSpent,
		}); err != nil {
			slog.Warn("publish completion event", "error", err)
		}
		writeJSON(w, http.StatusOK, list)

	case model.ListActive, model.ListArchived:
		list, err := h.shopping.SetStatus(userID, existing.ID, status)
		if err != nil {
			slog.Error("set list status", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update shopping list")
			return
		}
		h.broadcast(websocket.NewMessage("shopping_list", "updated", list.ID, nil))
		writeJSON(w, http.StatusOK, list)

	default:
		writeError(w, http.StatusBadRequest, "status must be active, completed or archived")
	}
}

func (h *ShoppingHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.shopping.DeleteList(auth.UserID(r.Context()), id); err != nil {
		slog.Error("delete shopping list", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete shopping list")
		return
	}

	h.broadcast(websocket.NewMessage("shopping_list", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// DuplicateList starts a fresh list from an existing one. The new name and
// month come from query parameters, defaulting to "<name> (Cópia)" and the
// current month.
func (h *ShoppingHandler) DuplicateList(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	userID := auth.UserID(r.Context())
	existing, err := h.shopping.GetList(userID, id)
	if err != nil {
		slog.Error("get shopping list", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get shopping list")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "shopping list not found")
		return
	}

	newName := strings.TrimSpace(r.URL.Query().Get("new_name"))
	if newName == "" {
		newName = fmt.Sprintf("%s (Cópia)", existing.Name)
	}
	newMonth := r.URL.Query().Get("new_month")
	if newMonth == "" {
		newMonth = time.Now().Format("2006-01")
	} else if !validMonth(newMonth) {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}

	list, err := h.shopping.DuplicateList(userID, id, newName, &newMonth)
	if err != nil {
		slog.Error("duplicate shopping list", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to duplicate shopping list")
		return
	}

	h.broadcast(websocket.NewMessage("shopping_list", "created", list.ID, nil))
	writeJSON(w, http.StatusCreated, list)
}

// --- Items ---

type shoppingItemRequest struct {
	Name           *string          `json:"name"`
	Category       *string          `json:"category"`
	Quantity       *string          `json:"quantity"`
	EstimatedPrice *decimal.Decimal `json:"estimated_price"`
	ActualPrice    *decimal.Decimal `json:"actual_price"`
	IsPurchased    *bool            `json:"is_purchased"`
	Notes          *string          `json:"notes"`
}

func (h *ShoppingHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	listID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req shoppingItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	name := strings.TrimSpace(*req.Name)

	if req.Quantity == nil || strings.TrimSpace(*req.Quantity) == "" {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}
	quantity := strings.TrimSpace(*req.Quantity)

	category := "Outros"
	if req.Category != nil && *req.Category != "" {
		category = *req.Category
	}
	estimated := decimal.Zero
	if req.EstimatedPrice != nil {
		if req.EstimatedPrice.Sign() < 0 {
			writeError(w, http.StatusBadRequest, "estimated_price cannot be negative")
			return
		}
		estimated = *req.EstimatedPrice
	}

	item, err := h.shopping.CreateItem(auth.UserID(r.Context()), listID, name, category, quantity, estimated, req.Notes)
	if err != nil {
		slog.Error("create shopping item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create item")
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "shopping list not found")
		return
	}

	h.broadcast(websocket.NewMessage("shopping_item", "created", item.ID, map[string]any{"list_id": listID}))
	writeJSON(w, http.StatusCreated, item)
}

// UpdateItem merges the submitted fields over the stored item, so partial
// bodies like {"is_purchased": true, "actual_price": "4.50"} work.
func (h *ShoppingHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	listID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	itemID, err := parsePathID(r, "item_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item_id")
		return
	}

	userID := auth.UserID(r.Context())
	existing, err := h.shopping.GetItem(userID, listID, itemID)
	if err != nil {
		slog.Error("get shopping item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	var req shoppingItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	name := existing.Name
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
	}
	category := existing.Category
	if req.Category != nil && *req.Category != "" {
		category = *req.Category
	}
	quantity := existing.Quantity
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	estimated := existing.EstimatedPrice
	if req.EstimatedPrice != nil {
		estimated = *req.EstimatedPrice
	}
	actual := existing.ActualPrice
	if req.ActualPrice != nil {
		actual = req.ActualPrice
	}
	purchased := existing.IsPurchased
	if req.IsPurchased != nil {
		purchased = *req.IsPurchased
	}
	notes := existing.Notes
	if req.Notes != nil {
		notes = req.Notes
	}

	item, err := h.shopping.UpdateItem(userID, listID, itemID, name, category, quantity, estimated, actual, purchased, notes)
	if err != nil {
		slog.Error("update shopping item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	h.broadcast(websocket.NewMessage("shopping_item", "updated", item.ID, map[string]any{"list_id": listID}))
	writeJSON(w, http.StatusOK, item)
}

func (h *ShoppingHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	listID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	itemID, err := parsePathID(r, "item_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item_id")
		return
	}

	if err := h.shopping.DeleteItem(auth.UserID(r.Context()), listID, itemID); err != nil {
		slog.Error("delete shopping item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	h.broadcast(websocket.NewMessage("shopping_item", "deleted", itemID, map[string]any{"list_id": listID}))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ShoppingHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.shopping.ListCategories()
	if err != nil {
		slog.Error("list categories", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}
