/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:      Unique ID per request for tracing
  2. RequestLogger:  logrus line per request (status, bytes, duration)
  3. Recoverer:      Panic recovery (500 instead of crash)
  4. CORS:           Cross-origin requests for the dashboard

ROUTE GROUPS:
  /api/balance/{id}     Balance lookup
  /api/add, /subtract   Mutations
  /api/users            User registration
  /api/history          Dashboard feeds
  /api/ranking
  /api/dashboard-stats
  /api/scenarios/*      Demo scenarios
  /healthz              Liveness
  /*                    Static files (front-end)

STATIC FILE SERVING:
  Serves the dashboard (dashboard.html, js/, css/) from Options.StaticDir.
  When the directory does not exist, / answers with a page listing the
  API endpoints instead.

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Request logger
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// Options configures NewRouter.
type Options struct {
	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string

	// StaticDir holds the front-end. Empty or missing disables static serving.
	StaticDir string

	Log logrus.FieldLogger
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts Options) *chi.Mux {
	log := opts.Log
	if log == nil {
		log = h.Log
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Healthz)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/balance/{id}", h.GetBalance)
		r.Post("/add", h.AddPoints)
		r.Post("/subtract", h.SubtractPoints)

		r.Post("/users", h.CreateUser)

		r.Get("/history", h.GetHistory)
		r.Get("/ranking", h.GetRanking)
		r.Get("/dashboard-stats", h.GetDashboardStats)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	if info, err := os.Stat(opts.StaticDir); opts.StaticDir != "" && err == nil && info.IsDir() {
		fileServer := http.FileServer(http.Dir(opts.StaticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/" {
				http.Redirect(w, r, "/dashboard.html", http.StatusFound)
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	} else {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Points Ledger</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Points Ledger API</h1>
<p>No front-end directory found. Set <code>LEDGER_STATIC_DIR</code> to serve the dashboard.</p>
<h2>API Endpoints</h2>
<ul>
<li><code>GET /api/balance/{id}</code> - Balance of one user</li>
<li><code>POST /api/add</code>, <code>POST /api/subtract</code> - Adjust a balance</li>
<li><code>POST /api/users</code> - Register a user</li>
<li><a href="/api/history">/api/history</a> - Transaction history</li>
<li><a href="/api/ranking">/api/ranking</a> - Leaderboard</li>
<li><a href="/api/dashboard-stats">/api/dashboard-stats</a> - Totals</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
</ul>
</body>
</html>`))
		})
	}

	return r
}
