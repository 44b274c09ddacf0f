/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK (outermost first):
  1. RealIP:     Client IP from X-Forwarded-For / X-Real-IP
  2. RequestID:  Unique ID per request for tracing
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. Timeout:    Per-request deadline
  6. Secure:     Security headers (unrolled/secure)
  7. Rate limit: Per-IP, requests per minute (httprate)
  8. CORS:       Cross-origin requests for the web front end

ROUTE GROUPS:
  /api/sales/*        Sales invoices
  /api/collections/*  Collections
  /api/returns/*      Sales returns and allowances
  /api/journal*       Journal (JSON, CSV)
  /api/transactions/* Transactions
  /api/accounts       Chart of accounts
  /api/reports/*      Balance sheet, statistics
  /api/snapshot       Export / import
  /api/scenarios/*    Demo scenarios

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// RouterOptions tunes the middleware stack.
type RouterOptions struct {
	CORSOrigins        []string
	RateLimitPerMinute int
	RequestTimeout     time.Duration
	Production         bool
}

// DefaultRouterOptions are used for development and tests. They match the
// config package defaults.
func DefaultRouterOptions() RouterOptions {
	return RouterOptions{
		CORSOrigins:        []string{"http://localhost:5173", "http://localhost:3000"},
		RateLimitPerMinute: 120,
		RequestTimeout:     30 * time.Second,
	}
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 120
	}

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           opts.Production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !opts.Production,
	})

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := secureMiddleware.Process(w, r); err != nil {
				h.logger.Warn("secure headers blocked request", zap.Error(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Use(httprate.Limit(opts.RateLimitPerMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Post("/", h.CreateSale)
			r.Get("/{id}", h.GetSale)
		})

		r.Route("/collections", func(r chi.Router) {
			r.Get("/", h.ListCollections)
			r.Post("/", h.CreateCollection)
		})

		r.Route("/returns", func(r chi.Router) {
			r.Get("/", h.ListReturns)
			r.Post("/", h.CreateReturn)
			r.Get("/{id}", h.GetReturn)
		})

		r.Get("/journal", h.ListJournal)
		r.Get("/journal.csv", h.ExportJournalCSV)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Get("/{id}", h.GetTransaction)
		})

		r.Get("/accounts", h.ListAccounts)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/balance-sheet", h.GetBalanceSheet)
			r.Get("/stats", h.GetStats)
		})

		r.Route("/snapshot", func(r chi.Router) {
			r.Get("/", h.ExportSnapshot)
			r.Put("/", h.ImportSnapshot)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetBooks)
		})
	})

	return r
}
