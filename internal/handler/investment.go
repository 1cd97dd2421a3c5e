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

type InvestmentHandler struct {
	investments *store.InvestmentStore
	hub         *websocket.Hub
}

func NewInvestmentHandler(is *store.InvestmentStore, hub *websocket.Hub) *InvestmentHandler {
	return &InvestmentHandler{investments: is, hub: hub}
}

func (h *InvestmentHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type investmentRequest struct {
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Value      decimal.Decimal `json:"value"`
	ReturnRate decimal.Decimal `json:"return_rate"`
	Color      string          `json:"color"`
}

func (h *InvestmentHandler) List(w http.ResponseWriter, r *http.Request) {
	investments, err := h.investments.List(auth.UserID(r.Context()))
	if err != nil {
		slog.Error("list investments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list investments")
		return
	}
	if investments == nil {
		investments = []model.Investment{}
	}
	writeJSON(w, http.StatusOK, investments)
}

func (h *InvestmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	investment, err := h.investments.GetByID(auth.UserID(r.Context()), id)
	if err != nil {
		slog.Error("get investment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get investment")
		return
	}
	if investment == nil {
		writeError(w, http.StatusNotFound, "investment not found")
		return
	}
	writeJSON(w, http.StatusOK, investment)
}

func (h *InvestmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req investmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	investment, err := h.investments.Create(auth.UserID(r.Context()), req.Name, req.Type, req.Value, req.ReturnRate, req.Color)
	if err != nil {
		slog.Error("create investment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create investment")
		return
	}

	h.broadcast(websocket.NewMessage("investment", "created", investment.ID, nil))
	writeJSON(w, http.StatusCreated, investment)
}

func (h *InvestmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	userID := auth.UserID(r.Context())
	existing, err := h.investments.GetByID(userID, id)
	if err != nil {
		slog.Error("get investment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get investment")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "investment not found")
		return
	}

	var req investmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	investment, err := h.investments.Update(userID, id, req.Name, req.Type, req.Value, req.ReturnRate, req.Color)
	if err != nil {
		slog.Error("update investment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update investment")
		return
	}

	h.broadcast(websocket.NewMessage("investment", "updated", investment.ID, nil))
	writeJSON(w, http.StatusOK, investment)
}

func (h *InvestmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.investments.Delete(auth.UserID(r.Context()), id); err != nil {
		slog.Error("delete investment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete investment")
		return
	}

	h.broadcast(websocket.NewMessage("investment", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
