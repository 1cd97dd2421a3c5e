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

type GoalHandler struct {
	goals *store.GoalStore
	hub   *websocket.Hub
}

func NewGoalHandler(gs *store.GoalStore, hub *websocket.Hub) *GoalHandler {
	return &GoalHandler{goals: gs, hub: hub}
}

func (h *GoalHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type goalRequest struct {
	Name    string          `json:"name"`
	Target  decimal.Decimal `json:"target"`
	Current decimal.Decimal `json:"current"`
	Color   string          `json:"color"`
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	goals, err := h.goals.List(auth.UserID(r.Context()))
	if err != nil {
		slog.Error("list goals", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list goals")
		return
	}
	if goals == nil {
		goals = []model.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	goal, err := h.goals.GetByID(auth.UserID(r.Context()), id)
	if err != nil {
		slog.Error("get goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get goal")
		return
	}
	if goal == nil {
		writeError(w, http.StatusNotFound, "goal not found")
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Target.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, "target must be positive")
		return
	}

	goal, err := h.goals.Create(auth.UserID(r.Context()), req.Name, req.Target, req.Current, req.Color)
	if err != nil {
		slog.Error("create goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create goal")
		return
	}

	h.broadcast(websocket.NewMessage("goal", "created", goal.ID, nil))
	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	userID := auth.UserID(r.Context())
	existing, err := h.goals.GetByID(userID, id)
	if err != nil {
		slog.Error("get goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get goal")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "goal not found")
		return
	}

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	goal, err := h.goals.Update(userID, id, req.Name, req.Target, req.Current, req.Color)
	if err != nil {
		slog.Error("update goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update goal")
		return
	}

	h.broadcast(websocket.NewMessage("goal", "updated", goal.ID, nil))
	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.goals.Delete(auth.UserID(r.Context()), id); err != nil {
		slog.Error("delete goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete goal")
		return
	}

	h.broadcast(websocket.NewMessage("goal", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
