package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"duitku/internal/cache"
	applog "duitku/internal/log"
	"duitku/internal/services"
	"duitku/internal/storage"
)

// Server wires the JSON API over the entity services.
type Server struct {
	http.Server

	transactions  *services.TransactionService
	goals         *services.GoalService
	debts         *services.DebtService
	budgets       *services.BudgetService
	dashboard     *services.DashboardService
	notifications *services.NotificationService

	repo      *storage.SQLiteRepository
	jwtSecret string

	logger      *applog.StructuredLogger
	rateLimiter *rateLimiter
	metrics     securityMetrics

	// dashboardCache holds computed dashboards per user, invalidated on
	// any write by that user.
	dashboardCache *cache.LRUCache[services.Dashboard]
	cacheManager   *cache.Manager

	// generation counts writes; responses echo it so the client can
	// fence stale reads.
	generation atomic.Int64

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr, jwtSecret string, repo *storage.SQLiteRepository, logger *applog.Logger, balanceMonths int) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		transactions:   services.NewTransactionService(repo),
		goals:          services.NewGoalService(repo),
		debts:          services.NewDebtService(repo),
		budgets:        services.NewBudgetService(repo),
		dashboard:      services.NewDashboardService(repo, balanceMonths),
		notifications:  services.NewNotificationService(repo),
		repo:           repo,
		jwtSecret:      jwtSecret,
		logger:         applog.NewStructuredLogger(logger.WithComponent(applog.ComponentHTTP)),
		rateLimiter:    newRateLimiter(),
		dashboardCache: cache.NewLRUCache[services.Dashboard](1000, time.Minute),
		cacheManager:   cache.NewManager(),
	}

	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	api := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.withCommon(s.withAuth(h)))
	}

	api("GET /api/transactions", s.handleListTransactions)
	api("POST /api/transactions", s.handleCreateTransaction)
	api("PUT /api/transactions/{tipe}/{id}", s.handleUpdateTransaction)
	api("DELETE /api/transactions/{tipe}/{id}", s.handleDeleteTransaction)

	api("GET /api/categories", s.handleListCategories)
	api("POST /api/categories", s.handleCreateCategory)
	api("DELETE /api/categories/{id}", s.handleDeleteCategory)

	api("GET /api/goals", s.handleListGoals)
	api("POST /api/goals", s.handleCreateGoal)
	api("PUT /api/goals/{id}", s.handleUpdateGoal)
	api("DELETE /api/goals/{id}", s.handleDeleteGoal)
	api("GET /api/goals/{id}/savings", s.handleListSavings)
	api("POST /api/goals/{id}/savings", s.handleCreateSaving)
	api("PUT /api/savings/{id}", s.handleUpdateSaving)
	api("DELETE /api/savings/{id}", s.handleDeleteSaving)
	api("GET /api/savings/by-source", s.handleSavingsBySource)

	api("GET /api/debts", s.handleListDebts)
	api("POST /api/debts", s.handleCreateDebt)
	api("PUT /api/debts/{id}", s.handleUpdateDebt)
	api("DELETE /api/debts/{id}", s.handleDeleteDebt)
	api("GET /api/debts/installments", s.handleMonthlyInstallments)
	api("GET /api/debts/{id}/payments", s.handleListPayments)
	api("POST /api/debts/{id}/payments", s.handleCreatePayment)
	api("DELETE /api/payments/{id}", s.handleDeletePayment)

	api("GET /api/budgets", s.handleListBudgets)
	api("POST /api/budgets", s.handleCreateBudget)
	api("PUT /api/budgets/{id}", s.handleUpdateBudget)
	api("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	api("GET /api/dashboard", s.handleDashboard)

	api("GET /api/notifications", s.handleListNotifications)
	api("POST /api/notifications/{id}/read", s.handleMarkNotificationRead)
	api("POST /api/notifications/read-all", s.handleMarkAllNotificationsRead)

	return s
}

// withCommon adds request IDs, security headers, rate limiting, and
// request logging.
func (s *Server) withCommon(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		reqLogger := applog.FromContext(r.Context()).With(applog.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), applog.LoggerContextKey, reqLogger)
		r = r.WithContext(ctx)

		if detectSuspiciousRequest(r, &s.metrics) {
			s.logger.LogError(ctx, "Suspicious request", nil,
				applog.ComponentSecurity, applog.OpParse,
				applog.NewFields().WithClientIP(clientIP).WithRequestID(requestID))
		}

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, &s.metrics) {
			w.Header().Set("Retry-After", "60")
			ErrorResponse(http.StatusTooManyRequests, "Terlalu banyak permintaan, coba lagi nanti").Write(w)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Request-ID", requestID)

		s.logger.LogHTTPStart(ctx, r, clientIP)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// bump records a write by the user: the dashboard cache entry is dropped
// and the new generation returned for the response envelope.
func (s *Server) bump(userID string) int64 {
	s.dashboardCache.Delete(userID)
	return s.generation.Add(1)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("db unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops the HTTP server and the background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
