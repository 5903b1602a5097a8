package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"openhours/internal/domain"
	"openhours/internal/facility"
	"openhours/internal/hours"
	"openhours/internal/store"
	"openhours/internal/util"
	"openhours/pkg/openhours"
)

// Server serves the opening-hours HTTP API.
type Server struct {
	registry *facility.Registry
	rules    store.RuleStore
	log      *slog.Logger
	writes   *util.RateLimiter // nil means rule changes are not limited

	// now is the clock used when a status request carries no "at".
	now func() time.Time
}

// NewServer creates a new HTTP API server.
func NewServer(registry *facility.Registry, rules store.RuleStore, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		registry: registry,
		rules:    rules,
		log:      log,
		now:      time.Now,
	}
}

// LimitWrites caps rule changes (PUT and DELETE) at perMinute with the given
// burst. Requests over the limit get 429.
func (s *Server) LimitWrites(perMinute, burst int) {
	if perMinute <= 0 {
		s.writes = nil
		return
	}
	s.writes = util.NewBurstLimiter(perMinute, burst)
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/facilities", s.handleFacilities)
	mux.HandleFunc("GET /api/facilities/{id}/status", s.handleStatus)
	mux.HandleFunc("GET /api/facilities/{id}/rules", s.handleRules)
	mux.HandleFunc("PUT /api/facilities/{id}/rules/{ruleID}", s.limited(s.handlePutRule))
	mux.HandleFunc("DELETE /api/facilities/{id}/rules/{ruleID}", s.limited(s.handleDeleteRule))
}

func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.writes != nil && !s.writes.Allow() {
			s.log.Warn("rule change rate limited", "path", r.URL.Path)
			writeError(w, http.StatusTooManyRequests, "too many rule changes, retry later")
			return
		}
		next(w, r)
	}
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(openhours.ErrorResponse{Error: msg})
}

// errorStatus maps resolution and store errors to HTTP status codes.
func errorStatus(err error) int {
	var invalid *domain.InvalidRuleError
	var lookup *hours.HolidayLookupError
	switch {
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	case errors.As(err, &lookup):
		return http.StatusBadGateway
	case errors.Is(err, store.ErrFacilityNotFound), errors.Is(err, store.ErrRuleNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// facility looks up the {id} path value, writing a 404 when unknown.
func (s *Server) facility(w http.ResponseWriter, r *http.Request) (*facility.Facility, bool) {
	id := r.PathValue("id")
	f, ok := s.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("facility %q not found", id))
	}
	return f, ok
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, openhours.HealthResponse{Status: "ok", Facilities: len(s.registry.List())})
}

func (s *Server) handleFacilities(w http.ResponseWriter, _ *http.Request) {
	list := s.registry.List()
	resp := openhours.FacilitiesResponse{Facilities: make([]openhours.Facility, 0, len(list))}
	for _, f := range list {
		resp.Facilities = append(resp.Facilities, facilityJSON(f))
	}
	writeJSON(w, resp)
}

// handleStatus resolves GET /api/facilities/{id}/status?at=<instant>. The
// instant is RFC3339 or "2006-01-02 15:04:05 -0700"; offset-less values are
// read in the facility's timezone. Without "at" the current time is used.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	f, ok := s.facility(w, r)
	if !ok {
		return
	}

	at := s.now()
	if v := r.URL.Query().Get("at"); v != "" {
		t, err := domain.ParseInstant(v, f.Location)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		at = t
	}

	out, err := f.Calendar.Status(r.Context(), at)
	if err != nil {
		s.log.Warn("resolving status", "facility", f.ID, "at", at, "error", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, StatusResponse(f, out))
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	f, ok := s.facility(w, r)
	if !ok {
		return
	}
	rules, err := s.rules.Rules(r.Context(), f.ID)
	if err != nil && !errors.Is(err, store.ErrFacilityNotFound) {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	resp := openhours.RulesResponse{Facility: f.ID, Rules: make([]openhours.Rule, 0, len(rules))}
	for _, rule := range rules {
		resp.Rules = append(resp.Rules, ruleJSON(rule))
	}
	writeJSON(w, resp)
}

func (s *Server) handlePutRule(w http.ResponseWriter, r *http.Request) {
	f, ok := s.facility(w, r)
	if !ok {
		return
	}
	ruleID := r.PathValue("ruleID")

	var body openhours.Rule
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if body.ID != "" && body.ID != ruleID {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("rule id %q does not match path %q", body.ID, ruleID))
		return
	}
	body.ID = ruleID

	rule, err := ruleSpec(body).Rule(f.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := rule.Validate(); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	if err := s.rules.SaveRule(r.Context(), f.ID, &rule); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	s.log.Info("rule saved", "facility", f.ID, "rule", rule.ID)
	writeJSON(w, ruleJSON(rule))
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	f, ok := s.facility(w, r)
	if !ok {
		return
	}
	ruleID := r.PathValue("ruleID")
	if err := s.rules.DeleteRule(r.Context(), f.ID, ruleID); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	s.log.Info("rule deleted", "facility", f.ID, "rule", ruleID)
	w.WriteHeader(http.StatusNoContent)
}
