package stub

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reperto/reperto-cli/config"
	"github.com/reperto/reperto-cli/logging"
)

var serverStartTime = time.Now()

// Server is the stub backend's HTTP server with its middleware chain and
// route table.
type Server struct {
	server *http.Server
	router chi.Router
	store  *Store
	config *config.Server
}

func NewServer(cfg *config.Server, store *Store) *Server {
	router := chi.NewRouter()

	s := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router: router,
		store:  store,
		config: cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logging.RequestLogger(slog.Default()))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestSizeMiddleware(s.config.MaxRequestBody))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(newRateLimiter().middleware)
	s.router.Use(metricsMiddleware)
}

func (s *Server) setupRoutes() {
	h := NewHandlers(s.store)

	s.router.Post("/auth/signup", h.Signup)
	s.router.Post("/auth/login", h.Login)

	s.router.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/auth/me", h.Me)

		r.Get("/cases", h.ListCases)
		r.Post("/cases", h.CreateCase)
		r.Get("/cases/{id}", h.GetCase)
		r.Post("/cases/{id}/analyze", h.AnalyzeCase)

		r.Post("/ai/parse-text", h.ParseText)
		r.Post("/ai/suggest-complaint", h.SuggestComplaint)

		r.Get("/patients", h.ListPatients)
		r.Post("/patients", h.CreatePatient)
		r.Get("/patients/{id}", h.GetPatient)
	})

	s.router.Get("/health", s.healthCheck)
	s.router.Handle("/metrics", promhttp.Handler())
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	logging.Info(fmt.Sprintf("Starting stub backend at: %s:%s", s.config.Address, s.config.Port))
	logging.Info("Demo login available", "email", DemoEmail, "password", DemoPassword)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down stub backend...")

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Stub backend shutdown complete")
	return nil
}

type healthData struct {
	Status       string `json:"status"`
	Uptime       string `json:"uptime"`
	MemoryUsage  int    `json:"memory_usage_mb"`
	LastSeeded   string `json:"last_seeded"`
	UserCount    int    `json:"user_count"`
	PatientCount int    `json:"patient_count"`
	CaseCount    int    `json:"case_count"`
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	users, patients, cases := s.store.Counts()

	respondWithJSON(w, http.StatusOK, healthData{
		Status:       "healthy",
		Uptime:       formatUptimeHuman(time.Since(serverStartTime)),
		MemoryUsage:  int(m.Alloc / 1024 / 1024),
		LastSeeded:   s.store.SeededAt().Format(time.RFC3339),
		UserCount:    users,
		PatientCount: patients,
		CaseCount:    cases,
	})
}

func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

// requestSizeMiddleware rejects request bodies over the configured limit
// before the handler reads them.
func requestSizeMiddleware(maxBody int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if contentLength := r.Header.Get("Content-Length"); contentLength != "" {
				if length, err := strconv.ParseInt(contentLength, 10, 64); err == nil && length > maxBody {
					logging.Warn("Request body too large",
						"content_length", length,
						"max_allowed", maxBody,
						"remote_addr", r.RemoteAddr)
					respondWithError(w, http.StatusRequestEntityTooLarge,
						fmt.Sprintf("Request body too large. Maximum allowed size is %d bytes", maxBody))
					return
				}
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
			next.ServeHTTP(w, r)
		})
	}
}
