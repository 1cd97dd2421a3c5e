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

type CreditCardHandler struct {
	cards *store.CreditCardStore
	hub   *websocket.Hub
}

func NewCreditCardHandler(cs *store.CreditCardStore, hub *websocket.Hub) *CreditCardHandler {
	return &CreditCardHandler{cards: cs, hub: hub}
}

func (h *CreditCardHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type creditCardRequest struct {
	Name  string          `json:"name"`
	Bank  string          `json:"bank"`
	Used  decimal.Decimal `json:"used"`
	Limit decimal.Decimal `json:"limit"`
	Color string          `json:"color"`
}

func (h *CreditCardHandler) List(w http.ResponseWriter, r *http.Request) {
	cards, err := h.cards.List(auth.UserID(r.Context()))
	if err != nil {
		slog.Error("list credit cards", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list credit cards")
		return
	}
	if cards == nil {
		cards = []model.CreditCard{}
	}
	writeJSON(w, http.StatusOK, cards)
}

func (h *CreditCardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	card, err := h.cards.GetByID(auth.UserID(r.Context()), id)
	if err != nil {
		slog.Error("get credit card", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get credit card")
		return
	}
	if card == nil {
		writeError(w, http.StatusNotFound, "credit card not found")
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *CreditCardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req creditCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Used.GreaterThan(req.Limit) {
		writeError(w, http.StatusBadRequest, "used cannot exceed limit")
		return
	}

	card, err := h.cards.Create(auth.UserID(r.Context()), req.Name, req.Bank, req.Used, req.Limit, req.Color)
	if err != nil {
		slog.Error("create credit card", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create credit card")
		return
	}

	h.broadcast(websocket.NewMessage("credit_card", "created", card.ID, nil))
	writeJSON(w, http.StatusCreated, card)
}

func (h *CreditCardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	userID := auth.UserID(r.Context())
	existing, err := h.cards.GetByID(userID, id)
	if err != nil {
		slog.Error("get credit card", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get credit card")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "credit card not found")
		return
	}

	var req creditCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	card, err := h.cards.Update(userID, id, req.Name, req.Bank, req.Used, req.Limit, req.Color)
	if err != nil {
		slog.Error("update credit card", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update credit card")
		return
	}

	h.broadcast(websocket.NewMessage("credit_card", "updated", card.ID, nil))
	writeJSON(w, http.StatusOK, card)
}

func (h *CreditCardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.cards.Delete(auth.UserID(r.Context()), id); err != nil {
		slog.Error("delete credit card", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete credit card")
		return
	}

	h.broadcast(websocket.NewMessage("credit_card", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
