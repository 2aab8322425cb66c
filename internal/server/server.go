package server

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"animarr/internal/config"
	"animarr/internal/jobs"
	"animarr/internal/logging"
	"animarr/internal/metrics"
	"animarr/internal/services"
	"animarr/internal/settings"
	"animarr/internal/store"
)

// Server is the HTTP API: a thin JSON layer over the store, the settings
// resolver, and the job runner.
type Server struct {
	store    *store.Store
	runner   *jobs.Runner
	resolver *settings.Resolver
	apiToken string
	logger   *slog.Logger
	now      func() time.Time
}

// New builds a Server.
func New(cfg *config.Config, st *store.Store, runner *jobs.Runner, resolver *settings.Resolver, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		store:    st,
		runner:   runner,
		resolver: resolver,
		apiToken: cfg.Paths.APIToken,
		logger:   logger.With(logging.FieldComponent, "api"),
		now:      time.Now,
	}
}

// Routes assembles the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.stampRequestID)

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		if s.apiToken != "" {
			api.Use(s.requireToken)
		}

		api.Get("/health", s.handleHealth)

		api.Route("/jobs", func(api chi.Router) {
			api.Post("/run", s.handleRunJob)
			api.Get("/history", s.handleJobHistory)
			api.Get("/running", s.handleRunningJobs)
			api.Get("/statistics", s.handleJobStatistics)
			api.Get("/{id}", s.handleGetJob)
		})

		api.Get("/titles", s.handleListTitles)
		api.Get("/titles/{id}/settings/effective", s.handleEffectiveSettings)

		api.Route("/settings/{id}", func(api chi.Router) {
			api.Get("/", s.handleGetSettings)
			api.Put("/", s.handlePutSettings)
			api.Delete("/", s.handleDeleteSettings)
		})

		api.Post("/template/render", s.handleRenderTemplate)
		api.Get("/seen", s.handleListSeen)
	})

	return r
}

func (s *Server) stampRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestID := middleware.GetReqID(r.Context()); requestID != "" {
			r = r.WithContext(services.WithRequestID(r.Context(), requestID))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.apiToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid or missing API token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state, err := s.store.AppState(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"time":              s.now().UTC().Format(time.RFC3339),
		"last_catalog_sync": state.LastCatalogSync,
		"last_feed_scan":    state.LastFeedScan,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
