package app

import (
	"container/heap"
	"sort"

	"github.com/google/uuid"

	"rahhal_engine/internal/domain"
)

const (
	// priceScale converts prices to integer cents for the knapsack axis.
	priceScale = 100

	maxPlans         = 3
	maxActivities    = 5
	maxPerCategory   = 2
	maxPlanLandmarks = 5
)

// BuildPlans assembles up to three itineraries. Each hotel with a known
// nightly price anchors one candidate plan: the remaining budget after
// lodging funds a 0/1 knapsack over priced activities and landmarks, the
// selection is thinned for category diversity, and the best plans by total
// score survive a bounded heap.
func BuildPlans(hotels []domain.Hotel, activities, landmarks []domain.Candidate, budget float64, durationDays int) []domain.Plan {
	if durationDays <= 0 {
		return nil
	}
	items := knapsackItems(activities, landmarks)

	h := &planHeap{}
	heap.Init(h)
	for _, hotel := range hotels {
		if hotel.NightlyPrice == nil {
			continue
		}
		lodging := *hotel.NightlyPrice * float64(durationDays)
		remaining := budget - lodging
		if remaining <= 0 {
			continue
		}

		picked := optimalItems(items, remaining)

		// Totals cover the whole DP selection; diversity only thins the
		// display lists, it never changes what the plan costs or scores.
		plan := domain.Plan{
			ID:         uuid.New(),
			Hotel:      hotel,
			TotalCost:  lodging,
			TotalScore: hotel.Score,
		}
		for _, it := range picked {
			plan.TotalCost += *it.cand.Price
			plan.TotalScore += it.cand.Score
		}

		acts, lms := splitSelection(picked)
		plan.Activities = diversify(acts)
		plan.Landmarks = topLandmarks(lms)

		if h.Len() < maxPlans {
			heap.Push(h, plan)
		} else if plan.TotalScore > (*h)[0].TotalScore {
			(*h)[0] = plan
			heap.Fix(h, 0)
		}
	}

	out := make([]domain.Plan, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(domain.Plan)
	}
	return out
}

type planItem struct {
	cand     domain.Candidate
	cost     int // cents
	activity bool
}

// knapsackItems keeps only candidates with a known positive price; free and
// unpriced entries have no cost axis to optimize over.
func knapsackItems(activities, landmarks []domain.Candidate) []planItem {
	out := make([]planItem, 0, len(activities)+len(landmarks))
	add := func(cands []domain.Candidate, activity bool) {
		for _, c := range cands {
			if c.Price == nil || *c.Price <= 0 {
				continue
			}
			out = append(out, planItem{cand: c, cost: int(*c.Price * priceScale), activity: activity})
		}
	}
	add(activities, true)
	add(landmarks, false)
	return out
}

// optimalItems solves the 0/1 knapsack over integer-cent costs: best[w] is
// the top score reachable at exactly-or-under capacity w, and the bitset
// trace recovers which items produced it. The cost axis runs descending so
// each item is taken at most once.
func optimalItems(items []planItem, budget float64) []planItem {
	capacity := int(budget * priceScale)
	if capacity <= 0 || len(items) == 0 {
		return nil
	}
	best := make([]float64, capacity+1)
	taken := make([][]bool, capacity+1)
	for i := range taken {
		taken[i] = make([]bool, len(items))
	}

	for i, it := range items {
		if it.cost > capacity {
			continue
		}
		for w := capacity; w >= it.cost; w-- {
			if cand := best[w-it.cost] + it.cand.Score; cand > best[w] {
				best[w] = cand
				copy(taken[w], taken[w-it.cost])
				taken[w][i] = true
			}
		}
	}

	bestW := 0
	for w := 1; w <= capacity; w++ {
		if best[w] > best[bestW] {
			bestW = w
		}
	}
	var out []planItem
	for i, t := range taken[bestW] {
		if t {
			out = append(out, items[i])
		}
	}
	return out
}

func splitSelection(items []planItem) (acts, lms []domain.Candidate) {
	for _, it := range items {
		if it.activity {
			acts = append(acts, it.cand)
		} else {
			lms = append(lms, it.cand)
		}
	}
	return acts, lms
}

// diversify thins activities to at most two per category and five overall,
// favouring higher scores: one pass takes the best of each category, a second
// pass admits runners-up while room remains.
func diversify(acts []domain.Candidate) []domain.Candidate {
	if len(acts) == 0 {
		return nil
	}
	sorted := make([]domain.Candidate, len(acts))
	copy(sorted, acts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].ID < sorted[j].ID
	})

	perCat := map[string]int{}
	used := make([]bool, len(sorted))
	var out []domain.Candidate
	for pass := 0; pass < maxPerCategory && len(out) < maxActivities; pass++ {
		for i, c := range sorted {
			if len(out) >= maxActivities {
				break
			}
			if used[i] || perCat[c.Category] != pass {
				continue
			}
			used[i] = true
			perCat[c.Category]++
			out = append(out, c)
		}
	}
	return out
}

func topLandmarks(lms []domain.Candidate) []domain.Candidate {
	if len(lms) == 0 {
		return nil
	}
	sorted := make([]domain.Candidate, len(lms))
	copy(sorted, lms)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].ID < sorted[j].ID
	})
	if len(sorted) > maxPlanLandmarks {
		sorted = sorted[:maxPlanLandmarks]
	}
	return sorted
}

// planHeap is a min-heap on TotalScore, keeping the best maxPlans plans.
type planHeap []domain.Plan

func (h planHeap) Len() int           { return len(h) }
func (h planHeap) Less(i, j int) bool { return h[i].TotalScore < h[j].TotalScore }
func (h planHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *planHeap) Push(x any)        { *h = append(*h, x.(domain.Plan)) }
func (h *planHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
