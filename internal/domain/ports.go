package domain

import (
	"context"
	"time"
)

// CatalogRepository is the read surface over the catalog store. Region
// filtering is a case-insensitive substring match on the region name; vector
// searches rank by descending cosine similarity with stable catalog order on
// ties.
type CatalogRepository interface {
	SearchRegions(ctx context.Context, vec []float32, limit int) ([]Region, error)
	SearchActivities(ctx context.Context, region string, vec []float32, limit int) ([]Candidate, error)
	SearchLandmarks(ctx context.Context, region string, vec []float32, limit int) ([]Candidate, error)

	// SearchHotels returns hotels in the region whose nightly price is within
	// nightlyLimit, carrying only the facilities named by facilityIDs (all of
	// the hotel's facilities when the filter is empty). Scores are left to the
	// caller.
	SearchHotels(ctx context.Context, region string, facilityIDs []int64, nightlyLimit float64) ([]Hotel, error)

	ListFacilities(ctx context.Context) ([]Facility, error)

	// SearchTrips returns active trips with open seats whose region list
	// contains region (any region when empty) and whose departure falls
	// inside [from, to], ranked by similarity to vec.
	SearchTrips(ctx context.Context, region string, vec []float32, from, to time.Time, limit int) ([]Trip, error)
}

// Embedder converts text into a fixed-length vector. Empty or whitespace-only
// text yields (nil, nil) without an upstream call.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
