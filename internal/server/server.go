package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/granaapp/grana/internal/auth"
	"github.com/granaapp/grana/internal/backup"
	"github.com/granaapp/grana/internal/events"
	"github.com/granaapp/grana/internal/handler"
	"github.com/granaapp/grana/internal/middleware"
	"github.com/granaapp/grana/internal/store"
	ws "github.com/granaapp/grana/internal/websocket"
)

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	authH        *handler.AuthHandler
	accountH     *handler.AccountHandler
	creditCardH  *handler.CreditCardHandler
	transactionH *handler.TransactionHandler
	investmentH  *handler.InvestmentHandler
	goalH        *handler.GoalHandler
	shoppingH    *handler.ShoppingHandler
	dashboardH   *handler.DashboardHandler

	tokens        *auth.TokenManager
	rateLimiter   *middleware.RateLimiter
	authRateLimit int
	backupManager *backup.Manager
	publisher     *events.Publisher
	logger        *slog.Logger
}

type Config struct {
	Tokens        *auth.TokenManager
	Publisher     *events.Publisher
	Backup        backup.Config
	AuthRateLimit int
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	accountStore := store.NewAccountStore(db)
	creditCardStore := store.NewCreditCardStore(db)
	transactionStore := store.NewTransactionStore(db)
	investmentStore := store.NewInvestmentStore(db)
	goalStore := store.NewGoalStore(db)
	shoppingStore := store.NewShoppingStore(db)

	backupMgr := backup.NewManager(cfg.Backup, db, logger.With("component", "backup"))

	authRateLimit := cfg.AuthRateLimit
	if authRateLimit <= 0 {
		authRateLimit = 10
	}

	return &Server{
		db:  db,
		hub: hub,

		authH:        handler.NewAuthHandler(userStore, cfg.Tokens),
		accountH:     handler.NewAccountHandler(accountStore, hub),
		creditCardH:  handler.NewCreditCardHandler(creditCardStore, hub),
		transactionH: handler.NewTransactionHandler(transactionStore, hub, cfg.Publisher),
		investmentH:  handler.NewInvestmentHandler(investmentStore, hub),
		goalH:        handler.NewGoalHandler(goalStore, hub),
		shoppingH:    handler.NewShoppingHandler(shoppingStore, hub, cfg.Publisher),
		dashboardH:   handler.NewDashboardHandler(accountStore, creditCardStore, transactionStore, investmentStore, goalStore),

		tokens:        cfg.Tokens,
		rateLimiter:   middleware.NewRateLimiter(),
		authRateLimit: authRateLimit,
		backupManager: backupMgr,
		publisher:     cfg.Publisher,
		logger:        logger,
	}
}

// BackupManager returns the backup manager for lifecycle control.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.tokens))

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.tokens)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, s.authRateLimit, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /auth/me", s.authH.Me)

	// Accounts
	mux.HandleFunc("GET /accounts", s.accountH.List)
	mux.HandleFunc("POST /accounts", s.accountH.Create)
	mux.HandleFunc("GET /accounts/{id}", s.accountH.Get)
	mux.HandleFunc("PUT /accounts/{id}", s.accountH.Update)
	mux.HandleFunc("DELETE /accounts/{id}", s.accountH.Delete)

	// Credit cards
	mux.HandleFunc("GET /credit-cards", s.creditCardH.List)
	mux.HandleFunc("POST /credit-cards", s.creditCardH.Create)
	mux.HandleFunc("GET /credit-cards/{id}", s.creditCardH.Get)
	mux.HandleFunc("PUT /credit-cards/{id}", s.creditCardH.Update)
	mux.HandleFunc("DELETE /credit-cards/{id}", s.creditCardH.Delete)

	// Transactions
	mux.HandleFunc("GET /transactions", s.transactionH.List)
	mux.HandleFunc("POST /transactions", s.transactionH.Create)
	mux.HandleFunc("GET /transactions/{id}", s.transactionH.Get)
	mux.HandleFunc("PUT /transactions/{id}", s.transactionH.Update)
	mux.HandleFunc("DELETE /transactions/{id}", s.transactionH.Delete)

	// Investments
	mux.HandleFunc("GET /investments", s.investmentH.List)
	mux.HandleFunc("POST /investments", s.investmentH.Create)
	mux.HandleFunc("GET /investments/{id}", s.investmentH.Get)
	mux.HandleFunc("PUT /investments/{id}", s.investmentH.Update)
	mux.HandleFunc("DELETE /investments/{id}", s.investmentH.Delete)

	// Goals
	mux.HandleFunc("GET /goals", s.goalH.List)
	mux.HandleFunc("POST /goals", s.goalH.Create)
	mux.HandleFunc("GET /goals/{id}", s.goalH.Get)
	mux.HandleFunc("PUT /goals/{id}", s.goalH.Update)
	mux.HandleFunc("DELETE /goals/{id}", s.goalH.Delete)

	// Shopping lists
	mux.HandleFunc("GET /shopping-lists", s.shoppingH.ListLists)
	mux.HandleFunc("POST /shopping-lists", s.shoppingH.CreateList)
	mux.HandleFunc("GET /shopping-lists/{id}", s.shoppingH.GetList)
	mux.HandleFunc("PUT /shopping-lists/{id}", s.shoppingH.UpdateList)
	mux.HandleFunc("DELETE /shopping-lists/{id}", s.shoppingH.DeleteList)
	mux.HandleFunc("POST /shopping-lists/{id}/duplicate", s.shoppingH.DuplicateList)
	mux.HandleFunc("POST /shopping-lists/{id}/items", s.shoppingH.CreateItem)
	mux.HandleFunc("PUT /shopping-lists/{id}/items/{item_id}", s.shoppingH.UpdateItem)
	mux.HandleFunc("DELETE /shopping-lists/{id}/items/{item_id}", s.shoppingH.DeleteItem)
	mux.HandleFunc("GET /shopping-categories", s.shoppingH.ListCategories)

	// Dashboard
	mux.HandleFunc("GET /dashboard/summary", s.dashboardH.Summary)
}
