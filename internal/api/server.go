// Package api provides the HTTP API for evaluating charts.
// GET endpoints are public. DELETE requires a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/wuxing/internal/engine"
	g "github.com/talgya/wuxing/internal/ganzhi"
	"github.com/talgya/wuxing/internal/persistence"
)

const (
	maxBodyBytes = 64 << 10
	defaultLimit = 20
	maxLimit     = 100
)

var validate = validator.New()

// Server serves chart evaluation over HTTP.
type Server struct {
	DB       *persistence.DB // nil disables the archive endpoints
	Port     int
	AdminKey string // Bearer token for DELETE endpoints. Empty = DELETE disabled.
	Version  string

	// RateLimit is evaluate requests per IP per minute.
	RateLimit       int
	ParallelBalance bool
}

// Handler builds the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	limit := s.RateLimit
	if limit <= 0 {
		limit = 30
	}
	evalLimiter := NewRateLimiter(limit, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/evaluate", RateLimitMiddleware(evalLimiter, s.handleEvaluate))
	mux.HandleFunc("/api/v1/evaluations", s.handleEvaluations)
	mux.Handle("/metrics", promhttp.Handler())

	// Detail endpoint; DELETE is admin only.
	mux.HandleFunc("/api/v1/evaluation/", s.adminOnly(s.handleEvaluation))

	return corsMiddleware(mux)
}

// HTTPServer builds the server without starting it.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && token == s.AdminKey
}

// adminOnly guards every method except GET behind the admin bearer token.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no WUXING_ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := map[string]any{
		"name":    "wuxing",
		"version": s.Version,
		"storage": s.DB != nil,
	}
	if s.DB != nil {
		if n, err := s.DB.CountEvaluations(); err == nil {
			status["evaluations"] = n
		}
		if v, err := s.DB.GetMeta("schema_version"); err == nil {
			status["schema_version"] = v
		}
	}
	writeJSON(w, status)
}

// evaluateRequest is a chart plus archive control. Save defaults to true when storage is on.
type evaluateRequest struct {
	g.ChartInput
	Save *bool `json:"save,omitempty"`
}

type evaluateResponse struct {
	ID string `json:"id,omitempty"`
	*engine.Result
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req evaluateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		evaluationsTotal.WithLabelValues("invalid").Inc()
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req.ChartInput); err != nil {
		evaluationsTotal.WithLabelValues("invalid").Inc()
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	chart, err := req.ChartInput.Build()
	if err != nil {
		evaluationsTotal.WithLabelValues("invalid").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	res, err := engine.Evaluate(chart, engine.Options{ParallelBalance: s.ParallelBalance})
	evaluationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, g.ErrInvalidPillar) || errors.Is(err, g.ErrMissingPillar) {
			status = http.StatusBadRequest
		}
		evaluationsTotal.WithLabelValues("error").Inc()
		http.Error(w, err.Error(), status)
		return
	}
	evaluationsTotal.WithLabelValues("ok").Inc()
	dayMasterStrength.WithLabelValues(res.DayMaster.Strength.String()).Inc()

	resp := evaluateResponse{Result: res}
	if s.DB != nil && (req.Save == nil || *req.Save) {
		id, err := s.DB.SaveEvaluation(res)
		if err != nil {
			slog.Error("save evaluation failed", "error", err)
			http.Error(w, "failed to store evaluation", http.StatusInternalServerError)
			return
		}
		resp.ID = id
	}

	slog.Info("chart evaluated",
		"chart", chart.Pillars[g.Day].String(),
		"day_master", res.DayMaster.Stem,
		"strength", res.DayMaster.Strength,
		"useful", res.Gods.Useful,
		"id", resp.ID,
	)
	writeJSON(w, resp)
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return "invalid chart: " + strings.Join(parts, "; ")
}

func (s *Server) handleEvaluations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "storage disabled", http.StatusServiceUnavailable)
		return
	}

	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxLimit)
	}

	list, err := s.DB.RecentEvaluations(limit)
	if err != nil {
		slog.Error("list evaluations failed", "error", err)
		http.Error(w, "failed to list evaluations", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []persistence.Summary{}
	}
	writeJSON(w, list)
}

// handleEvaluation serves GET and DELETE /api/v1/evaluation/{id}.
func (s *Server) handleEvaluation(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "storage disabled", http.StatusServiceUnavailable)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/evaluation/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "evaluation id required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		e, err := s.DB.GetEvaluation(id)
		if errors.Is(err, persistence.ErrNotFound) {
			http.Error(w, "evaluation not found", http.StatusNotFound)
			return
		}
		if err != nil {
			slog.Error("get evaluation failed", "id", id, "error", err)
			http.Error(w, "failed to load evaluation", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{
			"summary": e.Summary,
			"result":  e.Payload(),
		})

	case http.MethodDelete:
		err := s.DB.DeleteEvaluation(id)
		if errors.Is(err, persistence.ErrNotFound) {
			http.Error(w, "evaluation not found", http.StatusNotFound)
			return
		}
		if err != nil {
			slog.Error("delete evaluation failed", "id", id, "error", err)
			http.Error(w, "failed to delete evaluation", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
