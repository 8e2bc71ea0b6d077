package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"rahhal_engine/internal/app"
	"rahhal_engine/internal/domain"
)

// Suggester is what the handlers need from the engine.
type Suggester interface {
	SuggestRegions(ctx context.Context, description string) ([]domain.Region, error)
	SuggestHotels(ctx context.Context, region string, budget float64, duration int, facilities []string) ([]domain.Hotel, error)
	SuggestActivities(ctx context.Context, region, query string, preferences []string) ([]domain.Candidate, error)
	SuggestLandmarks(ctx context.Context, region, query string, preferences []string) ([]domain.Candidate, error)
	SuggestPlans(ctx context.Context, p app.PlanParams) ([]domain.Plan, error)
	SuggestTrips(ctx context.Context, p app.TripParams) ([]domain.Trip, error)
}

type Handlers struct{ S Suggester }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/v1/suggest/regions", h.suggestRegions)
	s.mux.Post("/v1/suggest/hotels", h.suggestHotels)
	s.mux.Post("/v1/suggest/activities", h.suggestActivities)
	s.mux.Post("/v1/suggest/landmarks", h.suggestLandmarks)
	s.mux.Post("/v1/suggest/plans", h.suggestPlans)
	s.mux.Post("/v1/suggest/trips", h.suggestTrips)
}

const maxBodyBytes = 1 << 20

type regionsRequest struct {
	Description string `json:"description"`
}

type hotelsRequest struct {
	Region     string   `json:"region"`
	Budget     float64  `json:"budget"`
	Duration   int      `json:"duration"`
	Facilities []string `json:"facilities"`
}

type candidatesRequest struct {
	Region      string   `json:"region"`
	Query       string   `json:"query"`
	Preferences []string `json:"preferences"`
}

type plansRequest struct {
	Region      string   `json:"region"`
	Budget      float64  `json:"budget"`
	Duration    int      `json:"duration"`
	Query       string   `json:"query"`
	Preferences []string `json:"preferences"`
	Facilities  []string `json:"facilities"`
}

type tripsRequest struct {
	Region      string  `json:"region"`
	Budget      float64 `json:"budget"`
	Duration    int     `json:"duration"`
	ArrivalDate string  `json:"arrival_date"`
	Query       string  `json:"query"`
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON: "+err.Error())
		return false
	}
	return true
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the engine's error taxonomy onto status codes. Unknown
// errors are logged and reported with a generic detail only.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeProblem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, domain.ErrNoFacilityMatch):
		writeProblem(w, http.StatusBadRequest, "Unknown Facilities", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrUnavailable), errors.Is(err, domain.ErrEmbedding):
		writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error())
	default:
		log.Error().Err(err).Msg("unhandled engine error")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func (h *Handlers) suggestRegions(w http.ResponseWriter, r *http.Request) {
	var req regionsRequest
	if !readJSON(w, r, &req) {
		return
	}
	regions, err := h.S.SuggestRegions(r.Context(), req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string][]domain.Region{"regions": regions})
}

func (h *Handlers) suggestHotels(w http.ResponseWriter, r *http.Request) {
	var req hotelsRequest
	if !readJSON(w, r, &req) {
		return
	}
	hotels, err := h.S.SuggestHotels(r.Context(), req.Region, req.Budget, req.Duration, req.Facilities)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string][]domain.Hotel{"hotels": hotels})
}

func (h *Handlers) suggestActivities(w http.ResponseWriter, r *http.Request) {
	var req candidatesRequest
	if !readJSON(w, r, &req) {
		return
	}
	out, err := h.S.SuggestActivities(r.Context(), req.Region, req.Query, req.Preferences)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string][]domain.Candidate{"activities": out})
}

func (h *Handlers) suggestLandmarks(w http.ResponseWriter, r *http.Request) {
	var req candidatesRequest
	if !readJSON(w, r, &req) {
		return
	}
	out, err := h.S.SuggestLandmarks(r.Context(), req.Region, req.Query, req.Preferences)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string][]domain.Candidate{"landmarks": out})
}

func (h *Handlers) suggestPlans(w http.ResponseWriter, r *http.Request) {
	var req plansRequest
	if !readJSON(w, r, &req) {
		return
	}
	plans, err := h.S.SuggestPlans(r.Context(), app.PlanParams{
		Region:      req.Region,
		Budget:      req.Budget,
		Duration:    req.Duration,
		Query:       req.Query,
		Preferences: req.Preferences,
		Facilities:  req.Facilities,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string][]domain.Plan{"plans": plans})
}

func (h *Handlers) suggestTrips(w http.ResponseWriter, r *http.Request) {
	var req tripsRequest
	if !readJSON(w, r, &req) {
		return
	}
	trips, err := h.S.SuggestTrips(r.Context(), app.TripParams{
		Region:      req.Region,
		Budget:      req.Budget,
		Duration:    req.Duration,
		ArrivalDate: req.ArrivalDate,
		Query:       req.Query,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string][]domain.Trip{"trips": trips})
}
