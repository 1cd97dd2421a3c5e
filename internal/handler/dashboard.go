package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/granaapp/grana/internal/auth"
	"github.com/granaapp/grana/internal/model"
	"github.com/granaapp/grana/internal/store"
)

type DashboardHandler struct {
	accounts     *store.AccountStore
	cards        *store.CreditCardStore
	transactions *store.TransactionStore
	investments  *store.InvestmentStore
	goals        *store.GoalStore
}

func NewDashboardHandler(as *store.AccountStore, cs *store.CreditCardStore, ts *store.TransactionStore, is *store.InvestmentStore, gs *store.GoalStore) *DashboardHandler {
	return &DashboardHandler{accounts: as, cards: cs, transactions: ts, investments: is, goals: gs}
}

type dashboardSummary struct {
	TotalBalance    decimal.Decimal `json:"total_balance"`
	TotalInvested   decimal.Decimal `json:"total_invested"`
	CreditUsed      decimal.Decimal `json:"credit_used"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	MonthlyIncome   decimal.Decimal `json:"monthly_income"`
	MonthlyExpenses decimal.Decimal `json:"monthly_expenses"`
	GoalsTarget     decimal.Decimal `json:"goals_target"`
	GoalsCurrent    decimal.Decimal `json:"goals_current"`
}

// Summary aggregates the user's balances, credit, investments, goals and
// the current month's cash flow.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	summary := dashboardSummary{
		TotalBalance:    decimal.Zero,
		TotalInvested:   decimal.Zero,
		CreditUsed:      decimal.Zero,
		CreditLimit:     decimal.Zero,
		MonthlyIncome:   decimal.Zero,
		MonthlyExpenses: decimal.Zero,
		GoalsTarget:     decimal.Zero,
		GoalsCurrent:    decimal.Zero,
	}

	accounts, err := h.accounts.List(userID)
	if err != nil {
		slog.Error("list accounts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}
	for _, a := range accounts {
		summary.TotalBalance = summary.TotalBalance.Add(a.Balance)
		summary.TotalInvested = summary.TotalInvested.Add(a.Investments)
	}

	cards, err := h.cards.List(userID)
	if err != nil {
		slog.Error("list credit cards", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}
	for _, c := range cards {
		summary.CreditUsed = summary.CreditUsed.Add(c.Used)
		summary.CreditLimit = summary.CreditLimit.Add(c.Limit)
	}

	investments, err := h.investments.List(userID)
	if err != nil {
		slog.Error("list investments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}
	for _, inv := range investments {
		summary.TotalInvested = summary.TotalInvested.Add(inv.Value)
	}

	goals, err := h.goals.List(userID)
	if err != nil {
		slog.Error("list goals", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}
	for _, g := range goals {
		summary.GoalsTarget = summary.GoalsTarget.Add(g.Target)
		summary.GoalsCurrent = summary.GoalsCurrent.Add(g.Current)
	}

	transactions, err := h.transactions.List(userID)
	if err != nil {
		slog.Error("list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}
	month := time.Now().Format("2006-01")
	for _, t := range transactions {
		if len(t.Date) < len(month) || t.Date[:len(month)] != month {
			continue
		}
		if t.Type == model.TransactionIncome {
			summary.MonthlyIncome = summary.MonthlyIncome.Add(t.Amount)
		} else {
			summary.MonthlyExpenses = summary.MonthlyExpenses.Add(t.Amount)
		}
	}

	writeJSON(w, http.StatusOK, summary)
}
