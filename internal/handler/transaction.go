package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/granaapp/grana/internal/auth"
	"github.com/granaapp/grana/internal/events"
	"github.com/granaapp/grana/internal/model"
	"github.com/granaapp/grana/internal/store"
	"github.com/granaapp/grana/internal/websocket"
)

type TransactionHandler struct {
	transactions *store.TransactionStore
	hub          *websocket.Hub
	publisher    *events.Publisher
}

func NewTransactionHandler(ts *store.TransactionStore, hub *websocket.Hub, publisher *events.Publisher) *TransactionHandler {
	return &TransactionHandler{transactions: ts, hub: hub, publisher: publisher}
}

func (h *TransactionHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type transactionRequest struct {
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	AccountID   *int64          `json:"account_id"`
}

func (req *transactionRequest) validate() string {
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		return "description is required"
	}
	if req.Type != model.TransactionIncome && req.Type != model.TransactionExpense {
		return "type must be income or expense"
	}
	if req.Amount.Sign() <= 0 {
		return "amount must be positive"
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return "date must be YYYY-MM-DD"
	}
	return ""
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.transactions.List(auth.UserID(r.Context()))
	if err != nil {
		slog.Error("list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if transactions == nil {
		transactions = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	transaction, err := h.transactions.GetByID(auth.UserID(r.Context()), id)
	if err != nil {
		slog.Error("get transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get transaction")
		return
	}
	if transaction == nil {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	writeJSON(w, http.StatusOK, transaction)
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	transaction, err := h.transactions.Create(auth.UserID(r.Context()), req.Description, req.Category, req.Date, req.Amount, req.Type, req.AccountID)
	if err != nil {
		slog.Error("create transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}

	h.broadcast(websocket.NewMessage("transaction", "created", transaction.ID, nil))
	if err := h.publisher.Publish(r.Context(), events.TransactionCreated, transaction); err != nil {
		slog.Warn("publish transaction event", "error", err)
	}
	writeJSON(w, http.StatusCreated, transaction)
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	userID := auth.UserID(r.Context())
	existing, err := h.transactions.GetByID(userID, id)
	if err != nil {
		slog.Error("get transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get transaction")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	transaction, err := h.transactions.Update(userID, id, req.Description, req.Category, req.Date, req.Amount, req.Type)
	if err != nil {
		slog.Error("update transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update transaction")
		return
	}
	if transaction == nil {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	h.broadcast(websocket.NewMessage("transaction", "updated", transaction.ID, nil))
	writeJSON(w, http.StatusOK, transaction)
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.transactions.Delete(auth.UserID(r.Context()), id); err != nil {
		slog.Error("delete transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}

	h.broadcast(websocket.NewMessage("transaction", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
