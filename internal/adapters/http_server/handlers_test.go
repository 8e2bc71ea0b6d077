package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rahhal_engine/internal/app"
	"rahhal_engine/internal/domain"
)

type stubSuggester struct {
	err   error
	plans []domain.Plan
}

func (s *stubSuggester) SuggestRegions(ctx context.Context, description string) ([]domain.Region, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Region{{ID: 1, Name: "Aqaba", Score: 92.5}}, nil
}

func (s *stubSuggester) SuggestHotels(ctx context.Context, region string, budget float64, duration int, facilities []string) ([]domain.Hotel, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Hotel{{ID: 7, Name: "Coral Bay", Score: 85}}, nil
}

func (s *stubSuggester) SuggestActivities(ctx context.Context, region, query string, preferences []string) ([]domain.Candidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Candidate{{ID: 3, Name: "Reef diving", Score: 88}}, nil
}

func (s *stubSuggester) SuggestLandmarks(ctx context.Context, region, query string, preferences []string) ([]domain.Candidate, error) {
	return s.SuggestActivities(ctx, region, query, preferences)
}

func (s *stubSuggester) SuggestPlans(ctx context.Context, p app.PlanParams) ([]domain.Plan, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.plans, nil
}

func (s *stubSuggester) SuggestTrips(ctx context.Context, p app.TripParams) ([]domain.Trip, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Trip{{ID: 11, Title: "Wadi Rum overnight", MatchScore: 91.25}}, nil
}

func newTestServer(stub *stubSuggester) http.Handler {
	srv := New()
	srv.MountHandlers(&Handlers{S: stub})
	return srv.Mux()
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlers_Success(t *testing.T) {
	h := newTestServer(&stubSuggester{})

	for _, tc := range []struct {
		path, body, want string
	}{
		{"/v1/suggest/regions", `{"description":"red sea"}`, `"regions"`},
		{"/v1/suggest/hotels", `{"region":"aqaba","budget":500,"duration":5}`, `"hotels"`},
		{"/v1/suggest/activities", `{"region":"aqaba","query":"dive"}`, `"activities"`},
		{"/v1/suggest/landmarks", `{"region":"aqaba","query":"ruins"}`, `"landmarks"`},
		{"/v1/suggest/trips", `{"region":"aqaba","query":"weekend by the sea","arrival_date":"2026-09-10"}`, `"trips"`},
	} {
		rec := post(t, h, tc.path, tc.body)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: want 200, got %d (%s)", tc.path, rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Fatalf("%s: want json content type, got %q", tc.path, ct)
		}
		if !strings.Contains(rec.Body.String(), tc.want) {
			t.Fatalf("%s: body missing %s: %s", tc.path, tc.want, rec.Body.String())
		}
	}
}

func TestHandlers_ErrorMapping(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: region is required", domain.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: no requested facility is known", domain.ErrNoFacilityMatch), http.StatusBadRequest},
		{fmt.Errorf("%w: nothing matched", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: db down", domain.ErrUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: embed down", domain.ErrEmbedding), http.StatusServiceUnavailable},
		{fmt.Errorf("kaboom"), http.StatusInternalServerError},
	} {
		h := newTestServer(&stubSuggester{err: tc.err})
		rec := post(t, h, "/v1/suggest/activities", `{"region":"aqaba","query":"dive"}`)
		if rec.Code != tc.want {
			t.Fatalf("err %v: want %d, got %d", tc.err, tc.want, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
			t.Fatalf("err %v: want problem+json, got %q", tc.err, ct)
		}
		if tc.want == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "kaboom") {
			t.Fatalf("internal error must not leak detail: %s", rec.Body.String())
		}
	}
}

func TestHandlers_MalformedBody(t *testing.T) {
	h := newTestServer(&stubSuggester{})
	rec := post(t, h, "/v1/suggest/plans", `{"region":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400 for malformed JSON, got %d", rec.Code)
	}
	rec = post(t, h, "/v1/suggest/plans", `{"region":"aqaba","nope":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400 for unknown field, got %d", rec.Code)
	}
}

func TestHandlers_PlansRequestPlumbing(t *testing.T) {
	plans := []domain.Plan{{TotalCost: 390, TotalScore: 210}}
	h := newTestServer(&stubSuggester{plans: plans})
	rec := post(t, h, "/v1/suggest/plans",
		`{"region":"aqaba","budget":500,"duration":5,"query":"dive","preferences":["snorkel"],"facilities":["pool"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"total_cost":390`) {
		t.Fatalf("plan payload missing totals: %s", rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	h := newTestServer(&stubSuggester{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}
}
