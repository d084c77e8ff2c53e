// Package httpapi serves the operational HTTP surface: health, Prometheus
// metrics and a couple of read-only views.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/whistles/internal/logging"
	"github.com/dmitrijs2005/whistles/internal/server/config"
	"github.com/dmitrijs2005/whistles/internal/server/metrics"
	"github.com/dmitrijs2005/whistles/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

type ChannelLister interface {
	ListEnabledChannels(ctx context.Context) ([]models.EnabledChannel, error)
}

type Server struct {
	address  string
	config   *config.Config
	channels ChannelLister
	logger   logging.Logger
}

func NewServer(a string, l logging.Logger, ch ChannelLister, cfg *config.Config) *Server {
	return &Server{
		address:  a,
		config:   cfg,
		channels: ch,
		logger:   l.With("module", "http_server"),
	}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	if s.config.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(s.config.RateLimitPerMinute, time.Minute))
	}
	r.Use(countRequests)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/settings", s.handleSettings)
		r.Get("/channels", s.handleChannels)
	})

	return r
}

// countRequests records one counter sample per request, labelled with the
// matched route pattern rather than the raw path.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "OK", "time": time.Now().Unix()})
}

type settingsResponse struct {
	LookbackWindow int    `json:"lookbackWindow"`
	PruneInterval  int    `json:"pruneInterval"`
	SchemaVersion  string `json:"schemaVersion"`
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, settingsResponse{
		LookbackWindow: s.config.LookbackWindowDays,
		PruneInterval:  s.config.PruneIntervalDays,
		SchemaVersion:  s.config.SchemaVersion,
	})
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.channels.ListEnabledChannels(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "list enabled channels", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if channels == nil {
		channels = []models.EnabledChannel{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"channels": channels})
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
