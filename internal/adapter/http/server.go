package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/crop-planner/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxRequestBytes = 1 << 20

// Planner builds a plan record for a validated request.
type Planner interface {
	Plan(ctx context.Context, req domain.PlanRequest) (domain.PlanRecord, error)
}

// Server exposes the planning API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	planner    Planner
	forecasts  domain.ForecastProvider
	logger     *slog.Logger
}

// NewServer creates an HTTP server. forecasts may be nil, in which case only
// inline plans are served and /v1/forecast answers 503.
func NewServer(addr string, ready sharedobs.ReadinessChecker, planner Planner, forecasts domain.ForecastProvider, logger *slog.Logger) *Server {
	s := &Server{
		planner:   planner,
		forecasts: forecasts,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/crops", s.handleCrops)
		r.Post("/plans", s.handlePlan)
		r.Get("/forecast", s.handleForecast)
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleCrops(w http.ResponseWriter, _ *http.Request) {
	profiles := make([]domain.CropProfile, 0, len(domain.Crops()))
	for _, c := range domain.Crops() {
		p, _ := domain.ProfileFor(c)
		profiles = append(profiles, p)
	}
	sharedobs.WriteJSON(w, http.StatusOK, profiles)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	var raw json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	req, err := domain.DecodePlanRequest(raw)
	if err != nil {
		s.writePlanError(w, r, err)
		return
	}
	if req.ID == "" {
		req.ID = middleware.GetReqID(r.Context())
	}

	rec, err := s.planner.Plan(r.Context(), req)
	if err != nil {
		s.writePlanError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, rec)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	if s.forecasts == nil {
		writeError(w, http.StatusServiceUnavailable, domain.ErrNoForecastProvider.Error())
		return
	}

	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(w, http.StatusBadRequest, "lat and lng query parameters are required numbers")
		return
	}
	if err := domain.ValidateLocation(lat, lng); err != nil {
		s.writePlanError(w, r, err)
		return
	}

	query, err := domain.NewForecastQuery(lat, lng, q.Get("from"), q.Get("to"), domain.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	daily, err := s.forecasts.DailyForecast(r.Context(), query)
	if err != nil {
		s.writePlanError(w, r, errors.Join(domain.ErrForecastUnavailable, err))
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, domain.SummarizeWeather(s.forecasts.Name(), query.From, query.End(), daily))
}

// writePlanError maps domain errors onto HTTP status codes.
func (s *Server) writePlanError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNoForecastProvider):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, domain.ErrForecastUnavailable):
		s.logger.Warn("forecast unavailable", "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusBadGateway, domain.ErrForecastUnavailable.Error())
	default:
		s.logger.Error("plan request failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
