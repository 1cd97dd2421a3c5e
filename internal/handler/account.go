package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/granaapp/grana/internal/auth"
	"github.com/granaapp/grana/internal/model"
	"github.com/granaapp/grana/internal/store"
	"github.com/granaapp/grana/internal/websocket"
)

type AccountHandler struct {
	accounts *store.AccountStore
	hub      *websocket.Hub
}

func NewAccountHandler(as *store.AccountStore, hub *websocket.Hub) *AccountHandler {
	return &AccountHandler{accounts: as, hub: hub}
}

func (h *AccountHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type accountRequest struct {
	Name        string          `json:"name"`
	Bank        string          `json:"bank"`
	Balance     decimal.Decimal `json:"balance"`
	Investments decimal.Decimal `json:"investments"`
	Color       string          `json:"color"`
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(auth.UserID(r.Context()))
	if err != nil {
		slog.Error("list accounts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	account, err := h.accounts.GetByID(auth.UserID(r.Context()), id)
	if err != nil {
		slog.Error("get account", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get account")
		return
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	account, err := h.accounts.Create(auth.UserID(r.Context()), req.Name, req.Bank, req.Balance, req.Investments, req.Color)
	if err != nil {
		slog.Error("create account", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	h.broadcast(websocket.NewMessage("account", "created", account.ID, nil))
	writeJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	userID := auth.UserID(r.Context())
	existing, err := h.accounts.GetByID(userID, id)
	if err != nil {
		slog.Error("get account", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get account")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	account, err := h.accounts.Update(userID, id, req.Name, req.Bank, req.Balance, req.Investments, req.Color)
	if err != nil {
		slog.Error("update account", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update account")
		return
	}

	h.broadcast(websocket.NewMessage("account", "updated", account.ID, nil))
	writeJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.accounts.Delete(auth.UserID(r.Context()), id); err != nil {
		slog.Error("delete account", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete account")
		return
	}

	h.broadcast(websocket.NewMessage("account", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
