package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"orcamento/internal/core"
	"orcamento/internal/log"
	"orcamento/internal/middleware/cors"
	"orcamento/internal/middleware/ratelimit"
	"orcamento/internal/middleware/security"
	"orcamento/internal/middleware/trace"
)

// ExpenseService is the expense use-case surface the handlers call.
type ExpenseService interface {
	List(ctx context.Context, in core.ExpenseFilterInput) (core.ExpensePage, error)
	Get(ctx context.Context, id string) (core.Expense, error)
	Save(ctx context.Context, in core.ExpenseInput) (core.Expense, bool, error)
	Update(ctx context.Context, id string, in core.ExpensePatchInput) (core.Expense, error)
	Delete(ctx context.Context, id string) error
}

// BudgetService is the budget use-case surface the handlers call.
type BudgetService interface {
	List(ctx context.Context) ([]core.BudgetGoal, error)
	Set(ctx context.Context, category, limit string) (core.BudgetGoal, error)
	Delete(ctx context.Context, category string) error
	Categories(ctx context.Context) ([]core.CategoryBudget, error)
}

type ReportService interface {
	Summary(ctx context.Context, month string) (core.Summary, error)
	MonthlyTrend(ctx context.Context) ([]core.MonthlyTotal, error)
}

// HealthChecker reports store connectivity.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Config holds the transport settings of the API server.
type Config struct {
	Addr               string
	AllowedOrigins     []string
	RateLimitPerMinute int
	Logger             *log.Logger
}

// Dependencies are the application services the server exposes.
type Dependencies struct {
	Expenses ExpenseService
	Budgets  BudgetService
	Reports  ReportService
	Health   HealthChecker
}

type Server struct {
	http.Server
	expenses ExpenseService
	budgets  BudgetService
	reports  ReportService
	health   HealthChecker
	logger   *log.Logger

	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	traceMiddleware  *trace.Middleware
	corsPolicy       *cors.Policy

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	expensesSaved   int64
	expensesDeleted int64
	budgetsSet      int64
	uptime          time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(cfg Config, deps Dependencies) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}

	limitCfg := ratelimit.DefaultConfig()
	if cfg.RateLimitPerMinute > 0 {
		limitCfg.RequestsPerMinute = cfg.RateLimitPerMinute
	}

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		expenses:         deps.Expenses,
		budgets:          deps.Budgets,
		reports:          deps.Reports,
		health:           deps.Health,
		logger:           logger.WithComponent(log.ComponentHTTP),
		securityDetector: security.NewDetector(),
		rateLimiter:      ratelimit.NewLimiter(limitCfg),
		corsPolicy:       cors.New(cors.DefaultConfig(cfg.AllowedOrigins)),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /categories", s.handleCategories)

	mux.HandleFunc("GET /expenses", s.handleListExpenses)
	mux.HandleFunc("POST /expenses", s.handleUpsertExpense)
	mux.HandleFunc("GET /expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /budgets", s.handleListBudgets)
	mux.HandleFunc("PUT /budgets", s.handleSetBudget)
	mux.HandleFunc("DELETE /budgets/{category}", s.handleDeleteBudget)

	mux.HandleFunc("GET /reports/summary", s.handleSummary)
	mux.HandleFunc("GET /reports/monthly", s.handleMonthlyTrend)

	mux.HandleFunc("/", s.handleNotFound)

	// Outermost first: trace sees every response, including rejections.
	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited)(handler)
	handler = s.corsPolicy.Middleware(s.handleOriginRejected)(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	s.Handler = handler

	return s
}

// Shutdown drains connections and stops background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
	})
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeErrorBody(w, http.StatusNotFound, log.ErrorTypeNotFound,
		fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path), nil)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	writeErrorBody(w, http.StatusTooManyRequests, log.ErrorTypeRateLimited,
		"rate limit exceeded, retry later", nil)
}

func (s *Server) handleOriginRejected(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	log.FromContext(r.Context()).WithComponent(log.ComponentCORS).WarnContext(r.Context(), "Origin rejected",
		log.FieldOrigin, origin,
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	s.writeError(w, r, fmt.Errorf("%w: %s", core.ErrOriginNotAllowed, origin))
}
