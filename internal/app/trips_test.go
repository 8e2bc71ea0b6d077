package app

import (
	"context"
	"errors"
	"testing"

	"rahhal_engine/internal/domain"
)

func trip(id int64, price float64, date, duration string, sim float64) domain.Trip {
	return domain.Trip{
		ID: id, Title: "trip", Price: price, Date: date,
		Duration: duration, AvailableSeats: 4, Similarity: sim,
	}
}

// ---- blended score ----

func TestScoreTrip_BudgetWindow(t *testing.T) {
	// With only the budget slot set and similarity 1, the blend is
	// 0.2*budget + 0.8 scaled to 100.
	base := trip(1, 200, "2026-09-10", "3 Days", 1)
	cases := []struct {
		name   string
		budget float64
		want   float64
	}{
		{"inside window", 200, 100},
		{"well over price", 300, 90},
		{"under 70 percent", 100, 80},
		{"slot unset", 0, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := scoreTrip(base, TripParams{Query: "q", Budget: tc.budget})
			if got != tc.want {
				t.Fatalf("budget %v: want %v, got %v", tc.budget, tc.want, got)
			}
		})
	}
}

func TestScoreTrip_DateDecay(t *testing.T) {
	// Only the arrival slot varies; the other terms contribute a fixed 0.7.
	base := trip(1, 200, "2026-09-10", "3 Days", 1)
	cases := []struct {
		name    string
		arrival string
		want    float64
	}{
		{"exact day", "2026-09-10", 100},
		{"two days off", "2026-09-12", 88},
		{"far off hits the floor", "2026-09-30", 76},
		{"unparseable date", "next tuesday", 70},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := scoreTrip(base, TripParams{Query: "q", ArrivalDate: tc.arrival})
			if got != tc.want {
				t.Fatalf("arrival %q: want %v, got %v", tc.arrival, tc.want, got)
			}
		})
	}
}

func TestScoreTrip_DurationFit(t *testing.T) {
	cases := []struct {
		name    string
		catalog string
		nights  int
		want    float64
	}{
		{"exact days", "3 Days", 3, 100},
		{"hours fold into days", "12 Hours", 1, 92.5},
		{"half fit", "1 Days", 2, 92.5},
		{"unreadable scores neutral", "a week", 3, 92.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := trip(1, 200, "2026-09-10", tc.catalog, 1)
			got := scoreTrip(tr, TripParams{Query: "q", Duration: tc.nights})
			if got != tc.want {
				t.Fatalf("duration %q vs %d nights: want %v, got %v", tc.catalog, tc.nights, tc.want, got)
			}
		})
	}
}

func TestParseTripDuration(t *testing.T) {
	if d, ok := parseTripDuration("2 Days"); !ok || d != 2 {
		t.Fatalf(`"2 Days": got %v, %v`, d, ok)
	}
	if d, ok := parseTripDuration("8 Hours"); !ok || d != 8.0/24 {
		t.Fatalf(`"8 Hours": got %v, %v`, d, ok)
	}
	if _, ok := parseTripDuration(""); ok {
		t.Fatal("empty text should not parse")
	}
	if _, ok := parseTripDuration("overnight"); ok {
		t.Fatal("non-numeric text should not parse")
	}
}

// ---- service ----

func TestSuggestTrips_RanksAndCaps(t *testing.T) {
	repo := &fakeRepo{trips: []domain.Trip{
		trip(1, 100, "2026-09-10", "2 Days", 0.2),
		trip(2, 100, "2026-09-10", "2 Days", 0.9),
		trip(3, 100, "2026-09-10", "2 Days", 0.5),
		trip(4, 100, "2026-09-10", "2 Days", 0.8),
	}}
	svc := newService(repo, &fakeEmbedder{})

	got, err := svc.SuggestTrips(context.Background(), TripParams{Query: "beach getaway"})
	if err != nil {
		t.Fatalf("SuggestTrips: %v", err)
	}
	if len(got) != maxTrips {
		t.Fatalf("want %d trips, got %d", maxTrips, len(got))
	}
	if got[0].ID != 2 || got[1].ID != 4 || got[2].ID != 3 {
		t.Fatalf("unexpected ranking: %+v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i].MatchScore > got[i-1].MatchScore {
			t.Fatalf("match scores not descending: %+v", got)
		}
	}
}

func TestSuggestTrips_DatedSearchFallsBackToOpenWindow(t *testing.T) {
	repo := &fakeRepo{trips: []domain.Trip{trip(7, 100, "2026-10-01", "2 Days", 0.9)}}
	svc := newService(repo, &fakeEmbedder{})

	got, err := svc.SuggestTrips(context.Background(), TripParams{Query: "desert", ArrivalDate: "2026-09-10"})
	if err != nil {
		t.Fatalf("SuggestTrips: %v", err)
	}
	if len(got) != 1 || got[0].ID != 7 {
		t.Fatalf("want the open-window trip, got %+v", got)
	}
	if repo.tripCalls != 2 {
		t.Fatalf("want a second open-window search, got %d calls", repo.tripCalls)
	}
}

func TestSuggestTrips_DatedHitSkipsFallback(t *testing.T) {
	repo := &fakeRepo{
		datedTrips: []domain.Trip{trip(1, 100, "2026-09-10", "2 Days", 0.9)},
		trips:      []domain.Trip{trip(2, 100, "2026-10-01", "2 Days", 0.9)},
	}
	svc := newService(repo, &fakeEmbedder{})

	got, err := svc.SuggestTrips(context.Background(), TripParams{Query: "desert", ArrivalDate: "2026-09-10"})
	if err != nil {
		t.Fatalf("SuggestTrips: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("want the dated trip only, got %+v", got)
	}
	if repo.tripCalls != 1 {
		t.Fatalf("want a single search, got %d calls", repo.tripCalls)
	}
}

func TestSuggestTrips_Validation(t *testing.T) {
	svc := newService(&fakeRepo{}, &fakeEmbedder{})
	_, err := svc.SuggestTrips(context.Background(), TripParams{Query: "   "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestSuggestTrips_EmbedFailureIsUnavailable(t *testing.T) {
	emb := &fakeEmbedder{fail: map[string]error{"beach": errors.New("upstream down")}}
	svc := newService(&fakeRepo{}, emb)
	_, err := svc.SuggestTrips(context.Background(), TripParams{Query: "beach"})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}

func TestSuggestTrips_NoMatchesIsNotFound(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo, &fakeEmbedder{})
	_, err := svc.SuggestTrips(context.Background(), TripParams{Query: "moon landing"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if repo.tripCalls != 1 {
		t.Fatalf("undated search must not retry, got %d calls", repo.tripCalls)
	}
}

func TestSuggestTrips_StoreFailurePropagates(t *testing.T) {
	boom := errors.New("pool exhausted")
	svc := newService(&fakeRepo{searchErr: boom}, &fakeEmbedder{})
	_, err := svc.SuggestTrips(context.Background(), TripParams{Query: "beach"})
	if !errors.Is(err, boom) {
		t.Fatalf("want store error, got %v", err)
	}
}
