package app

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"rahhal_engine/internal/domain"
)

// Prepackaged-trip recommendation. Trips are ready-made departures with a
// fixed price, date and duration; the recommender retrieves the ten closest
// by description similarity and re-ranks them with a weighted blend of how
// well each trip fits the traveller's budget, duration and arrival date.
const (
	tripCandidateLimit = 10
	maxTrips           = 3

	tripContentWeight  = 0.35
	tripDateWeight     = 0.3
	tripBudgetWeight   = 0.2
	tripDurationWeight = 0.15
)

const tripDateLayout = "2006-01-02"

// Open window used when the traveller gives no arrival date, and for the
// retry when a dated search comes back empty.
var (
	tripWindowStart = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	tripWindowEnd   = time.Date(2100, 12, 31, 0, 0, 0, 0, time.UTC)
)

// TripParams carries the slots the dialogue layer collects for a trip
// request. Query is the only required field; every other slot just narrows
// or re-weights the match.
type TripParams struct {
	Region      string
	Budget      float64
	Duration    int
	ArrivalDate string // YYYY-MM-DD
	Query       string
}

// SuggestTrips retrieves prepackaged trips near the request and returns the
// best three by blended match score. A dated search that finds nothing is
// retried over the open window so a slightly-off arrival date degrades the
// date sub-score instead of emptying the result.
func (s *SuggestionService) SuggestTrips(ctx context.Context, p TripParams) ([]domain.Trip, error) {
	if strings.TrimSpace(p.Query) == "" {
		return nil, fmt.Errorf("%w: a trip request message is required", domain.ErrValidation)
	}
	vec, err := s.embedder.Embed(ctx, tripContext(p))
	if err != nil {
		return nil, fmt.Errorf("%w: embedding service: %v", domain.ErrUnavailable, err)
	}

	from, to, dated := tripDateWindow(p.ArrivalDate)
	trips, err := s.repo.SearchTrips(ctx, p.Region, vec, from, to, tripCandidateLimit)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 && dated {
		trips, err = s.repo.SearchTrips(ctx, p.Region, vec, tripWindowStart, tripWindowEnd, tripCandidateLimit)
		if err != nil {
			return nil, err
		}
	}
	if len(trips) == 0 {
		return nil, fmt.Errorf("%w: no trips match the request", domain.ErrNotFound)
	}

	for i := range trips {
		trips[i].MatchScore = scoreTrip(trips[i], p)
	}
	sort.SliceStable(trips, func(i, j int) bool {
		if trips[i].MatchScore != trips[j].MatchScore {
			return trips[i].MatchScore > trips[j].MatchScore
		}
		return trips[i].ID < trips[j].ID
	})
	if len(trips) > maxTrips {
		trips = trips[:maxTrips]
	}
	return trips, nil
}

// tripContext folds the collected slots into the text that gets embedded, so
// similarity reflects the whole request and not just the free-text message.
func tripContext(p TripParams) string {
	parts := []string{strings.TrimSpace(p.Query)}
	if r := strings.TrimSpace(p.Region); r != "" {
		parts = append(parts, "Location: "+r)
	}
	if p.Budget > 0 {
		parts = append(parts, fmt.Sprintf("Budget: %g", p.Budget))
	}
	if p.Duration > 0 {
		parts = append(parts, fmt.Sprintf("Duration: %d days", p.Duration))
	}
	if d := strings.TrimSpace(p.ArrivalDate); d != "" {
		parts = append(parts, "Arrival: "+d)
	}
	return strings.Join(parts, ". ")
}

// tripDateWindow narrows the search to the arrival day when one parses;
// anything else searches the open window.
func tripDateWindow(arrival string) (from, to time.Time, dated bool) {
	d, err := time.Parse(tripDateLayout, strings.TrimSpace(arrival))
	if err != nil {
		return tripWindowStart, tripWindowEnd, false
	}
	return d, d, true
}

// scoreTrip blends four fit signals into a 0-100 display score. Slots the
// traveller did not fill score as a perfect fit so they never penalize a
// trip.
func scoreTrip(t domain.Trip, p TripParams) float64 {
	budget := 1.0
	if p.Budget > 0 {
		switch {
		case p.Budget < t.Price*0.7:
			budget = 0
		case p.Budget > t.Price*1.3:
			budget = 0.5
		}
	}

	duration := 1.0
	if p.Duration > 0 {
		if days, ok := parseTripDuration(t.Duration); ok {
			want := float64(p.Duration)
			diff := math.Abs(want - days)
			duration = math.Max(0, 1-diff/math.Max(want, days))
		} else {
			duration = 0.5
		}
	}

	date := 1.0
	if strings.TrimSpace(p.ArrivalDate) != "" {
		user, uerr := time.Parse(tripDateLayout, strings.TrimSpace(p.ArrivalDate))
		dep, derr := time.Parse(tripDateLayout, t.Date)
		switch {
		case uerr != nil || derr != nil:
			date = 0
		case user.Equal(dep):
			date = 1
		default:
			days := math.Abs(user.Sub(dep).Hours() / 24)
			date = math.Max(0.2, 1-0.2*days)
		}
	}

	blend := tripBudgetWeight*budget +
		tripDurationWeight*duration +
		tripDateWeight*date +
		tripContentWeight*t.Similarity
	return roundScore(blend * 100)
}

// parseTripDuration reads catalog duration text like "3 Days" or "8 Hours"
// into days. The catalog is not fully consistent, so anything unreadable
// reports !ok and scores neutrally.
func parseTripDuration(text string) (days float64, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	if strings.Contains(strings.ToLower(text), "hour") {
		n /= 24
	}
	return n, true
}
