package app

import (
	"math"
	"sort"

	"rahhal_engine/internal/domain"
)

const (
	facilityWeight = 0.7
	priceWeight    = 0.3
)

// ScoreHotels ranks hotels by requested-facility coverage blended with a
// min-max normalized price preference (cheaper is better). Hotels with an
// unknown nightly price keep a zero price component; they are ranked on
// facilities alone, never treated as free. The slice is sorted in place by
// descending score, ties by ascending id.
func ScoreHotels(hotels []domain.Hotel, requested []int64) []domain.Hotel {
	minP, maxP := priceBounds(hotels)
	want := make(map[int64]struct{}, len(requested))
	for _, id := range requested {
		want[id] = struct{}{}
	}

	for i := range hotels {
		h := &hotels[i]
		ratio := 0.0
		if len(want) > 0 {
			hit := 0
			for _, id := range h.FacilityIDs {
				if _, ok := want[id]; ok {
					hit++
				}
			}
			ratio = float64(hit) / float64(len(want))
		}
		priceScore := 0.0
		if h.NightlyPrice != nil && maxP > minP {
			priceScore = 1 - (*h.NightlyPrice-minP)/(maxP-minP)
		}
		h.Score = roundScore((facilityWeight*ratio + priceWeight*priceScore) * 100)
	}

	sort.SliceStable(hotels, func(i, j int) bool {
		if hotels[i].Score != hotels[j].Score {
			return hotels[i].Score > hotels[j].Score
		}
		return hotels[i].ID < hotels[j].ID
	})
	return hotels
}

func priceBounds(hotels []domain.Hotel) (min, max float64) {
	first := true
	for _, h := range hotels {
		if h.NightlyPrice == nil {
			continue
		}
		p := *h.NightlyPrice
		if first {
			min, max = p, p
			first = false
			continue
		}
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return min, max
}

func roundScore(s float64) float64 {
	s = math.Round(s*100) / 100
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
