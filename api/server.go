/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, added to every log line
  2. hlog:       Request-scoped zerolog logger and access log
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the browser UI
  5. httprate:   Per-IP rate limit on /api

ROUTE GROUPS:
  /api/reconcile, /api/shifts/*    Reconciliation, close, exports
  /api/stations/{id}/*             Station data, drafts, close log
  /api/drafts/*                    Draft by ID
  /api/vouchers/*, /api/reports/*  Voucher tools
  /healthz                         Liveness and dependency checks

SECURITY NOTE:
  No authentication middleware. The backend session guards the system
  of record; this service only holds drafts.

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
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	Logger             zerolog.Logger
	CORSOrigins        []string
	RateLimitPerMinute int // zero disables the limit
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(hlog.NewHandler(opts.Logger))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		if opts.RateLimitPerMinute > 0 {
			r.Use(httprate.Limit(
				opts.RateLimitPerMinute,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
			))
		}

		r.Post("/reconcile", h.Reconcile)

		// Shift routes
		r.Route("/shifts", func(r chi.Router) {
			r.Post("/validate", h.ValidateShift)
			r.Post("/{id}/close", h.CloseShift)
			r.Post("/{id}/reopen", h.ReopenShift)
			r.Get("/{id}/dipping-variances", h.DippingVariances)
			r.Get("/{id}/export.xlsx", h.ExportShiftExcel)
			r.Get("/{id}/export.pdf", h.ExportShiftPDF)
		})

		// Station routes
		r.Route("/stations/{id}", func(r chi.Router) {
			r.Get("/shifts", h.ListStationShifts)
			r.Get("/shifts/export.xlsx", h.ExportStationShifts)
			r.Get("/catalog", h.GetCatalog)
			r.Get("/last-readings", h.GetLastReadings)
			r.Get("/prices", h.GetPrices)
			r.Get("/available-pumps", h.GetAvailablePumps)
			r.Get("/products/{productID}/tanks", h.GetProductTanks)
			r.Get("/drafts", h.ListDrafts)
			r.Post("/drafts", h.CreateDraft)
			r.Get("/runs", h.ListRuns)
		})

		// Draft routes
		r.Route("/drafts", func(r chi.Router) {
			r.Get("/{id}", h.GetDraft)
			r.Put("/{id}", h.UpdateDraft)
			r.Delete("/{id}", h.DeleteDraft)
		})

		r.Post("/vouchers/convert", h.ConvertVoucher)
		r.Get("/reports/vouchers.xlsx", h.ExportVoucherReport)
	})

	return r
}

// requestIDLogger adds chi's request ID to the request logger.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}
