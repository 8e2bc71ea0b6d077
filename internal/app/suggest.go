package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"rahhal_engine/internal/domain"
)

// maxConcurrentRetrievals bounds the per-request fan-out: one retrieval per
// free-text query plus one per preference term.
const maxConcurrentRetrievals = 4

// SuggestionService is the core engine behind every suggest endpoint. It is
// stateless; all shared state lives in the repository's pool and the
// embedder's cache.
type SuggestionService struct {
	repo      domain.CatalogRepository
	embedder  domain.Embedder
	limit     int
	threshold int
}

func NewSuggestionService(repo domain.CatalogRepository, embedder domain.Embedder, limit, threshold int) *SuggestionService {
	return &SuggestionService{repo: repo, embedder: embedder, limit: limit, threshold: threshold}
}

// PlanParams carries every slot the dialogue layer collects for a full plan.
type PlanParams struct {
	Region      string
	Budget      float64
	Duration    int
	Query       string
	Preferences []string
	Facilities  []string
}

func (s *SuggestionService) SuggestRegions(ctx context.Context, description string) ([]domain.Region, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	vec, err := s.embedder.Embed(ctx, description)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding service: %v", domain.ErrUnavailable, err)
	}
	if vec == nil {
		return nil, fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	regions, err := s.repo.SearchRegions(ctx, vec, s.limit)
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		return nil, fmt.Errorf("%w: no regions match the description", domain.ErrNotFound)
	}
	return regions, nil
}

func (s *SuggestionService) SuggestActivities(ctx context.Context, region, query string, preferences []string) ([]domain.Candidate, error) {
	return s.suggestCandidates(ctx, region, query, preferences, s.repo.SearchActivities, "activities")
}

func (s *SuggestionService) SuggestLandmarks(ctx context.Context, region, query string, preferences []string) ([]domain.Candidate, error) {
	return s.suggestCandidates(ctx, region, query, preferences, s.repo.SearchLandmarks, "landmarks")
}

type searchFunc func(ctx context.Context, region string, vec []float32, limit int) ([]domain.Candidate, error)

func (s *SuggestionService) suggestCandidates(ctx context.Context, region, query string, preferences []string, search searchFunc, what string) ([]domain.Candidate, error) {
	if strings.TrimSpace(region) == "" {
		return nil, fmt.Errorf("%w: region is required", domain.ErrValidation)
	}
	terms := collectTerms(query, preferences)
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: a query or preference list is required", domain.ErrValidation)
	}

	results, err := s.gather(ctx, terms, func(ctx context.Context, vec []float32) ([]domain.Candidate, error) {
		return search(ctx, region, vec, s.limit)
	})
	if err != nil {
		return nil, err
	}
	merged := mergeCandidates(results)
	if len(merged) == 0 {
		return nil, fmt.Errorf("%w: no %s match in %q", domain.ErrNotFound, what, region)
	}
	return merged, nil
}

// gather embeds each term and retrieves its candidates, fanning out with a
// bounded errgroup. A term whose embedding fails or yields no signal is
// logged and dropped; infrastructure failures from the store cancel the whole
// request.
func (s *SuggestionService) gather(ctx context.Context, terms []string, retrieve func(ctx context.Context, vec []float32) ([]domain.Candidate, error)) ([][]domain.Candidate, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRetrievals)

	var mu sync.Mutex
	var results [][]domain.Candidate
	for _, term := range terms {
		g.Go(func() error {
			vec, err := s.embedder.Embed(ctx, term)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				log.Warn().Err(err).Str("term", term).Msg("embedding failed, term dropped")
				return nil
			}
			if vec == nil {
				return nil
			}
			cands, err := retrieve(ctx, vec)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, cands)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// mergeCandidates dedupes by id and ranks by score. The highest-scoring
// occurrence of an id wins outright; fields are never merged across sources.
// The result is independent of input order: ties on score break on ascending
// id.
func mergeCandidates(results [][]domain.Candidate) []domain.Candidate {
	seen := map[int64]int{}
	var out []domain.Candidate
	for _, list := range results {
		for _, c := range list {
			if i, ok := seen[c.ID]; ok {
				if c.Score > out[i].Score {
					out[i] = c
				}
				continue
			}
			seen[c.ID] = len(out)
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *SuggestionService) SuggestHotels(ctx context.Context, region string, budget float64, duration int, facilities []string) ([]domain.Hotel, error) {
	if strings.TrimSpace(region) == "" {
		return nil, fmt.Errorf("%w: region is required", domain.ErrValidation)
	}
	if budget <= 0 || duration <= 0 {
		return nil, fmt.Errorf("%w: budget and duration must be positive", domain.ErrValidation)
	}

	var ids []int64
	if len(collectTerms("", facilities)) > 0 {
		catalog, err := s.repo.ListFacilities(ctx)
		if err != nil {
			return nil, err
		}
		matches := MatchFacilities(facilities, catalog, s.threshold)
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: no requested facility is known", domain.ErrNoFacilityMatch)
		}
		ids = matchedIDs(matches)
	}

	nightlyLimit := budget / float64(duration)
	hotels, err := s.repo.SearchHotels(ctx, region, ids, nightlyLimit)
	if err != nil {
		return nil, err
	}
	if len(hotels) == 0 {
		return nil, fmt.Errorf("%w: no hotels match in %q", domain.ErrNotFound, region)
	}
	return ScoreHotels(hotels, ids), nil
}

// SuggestPlans runs the full pipeline: hotels, activities and landmarks are
// gathered for the region, then combined into budget-feasible itineraries. A
// category that comes back empty degrades to an empty list; only a plan set
// with nothing to offer is an error.
func (s *SuggestionService) SuggestPlans(ctx context.Context, p PlanParams) ([]domain.Plan, error) {
	hotels, err := s.SuggestHotels(ctx, p.Region, p.Budget, p.Duration, p.Facilities)
	if err != nil {
		return nil, err
	}

	activities, err := s.suggestOptional(ctx, func() ([]domain.Candidate, error) {
		return s.SuggestActivities(ctx, p.Region, p.Query, p.Preferences)
	})
	if err != nil {
		return nil, err
	}
	landmarks, err := s.suggestOptional(ctx, func() ([]domain.Candidate, error) {
		return s.SuggestLandmarks(ctx, p.Region, p.Query, p.Preferences)
	})
	if err != nil {
		return nil, err
	}

	plans := BuildPlans(hotels, activities, landmarks, p.Budget, p.Duration)
	if len(plans) == 0 {
		return nil, fmt.Errorf("%w: no feasible plan for the given budget and duration", domain.ErrNotFound)
	}
	return plans, nil
}

// suggestOptional tolerates empty categories and missing text signals during
// plan assembly; real failures still propagate.
func (s *SuggestionService) suggestOptional(ctx context.Context, fn func() ([]domain.Candidate, error)) ([]domain.Candidate, error) {
	out, err := fn()
	if err != nil && (errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation)) {
		return nil, nil
	}
	return out, err
}

func collectTerms(query string, preferences []string) []string {
	var out []string
	if q := strings.TrimSpace(query); q != "" {
		out = append(out, q)
	}
	for _, p := range preferences {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
