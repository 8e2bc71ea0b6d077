package domain

import "github.com/google/uuid"

// Candidate is the unified shape of everything retrieval emits, regardless of
// source table. Score is a display score in [0,100]. Price is nil when the
// catalog row has no price (unknown, not free).
type Candidate struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Score       float64  `json:"score"`
	Price       *float64 `json:"price"`
	Category    string   `json:"category"`
}

// Plan is one itinerary: a hotel plus a diversified, budget-feasible subset of
// activities and landmarks. Activities and Landmarks are ordered by
// descending score. Plans are request-scoped.
type Plan struct {
	ID         uuid.UUID   `json:"plan_id"`
	Hotel      Hotel       `json:"hotel"`
	Activities []Candidate `json:"activities"`
	Landmarks  []Candidate `json:"landmarks"`
	TotalCost  float64     `json:"total_cost"`
	TotalScore float64     `json:"total_score"`
}
