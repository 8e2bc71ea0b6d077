package domain

// Trip is a prepackaged departure: a stored package with a fixed price,
// departure day and seat count. Similarity is the raw cosine similarity of
// the trip description to the request context; MatchScore is the blended
// display score set by the recommender.
type Trip struct {
	ID             int64   `json:"trip_id"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Region         string  `json:"region"`
	Price          float64 `json:"price"`
	Date           string  `json:"date"` // departure day, YYYY-MM-DD
	AvailableSeats int     `json:"available_seats"`
	Duration       string  `json:"duration"` // catalog text, e.g. "3 Days" or "8 Hours"
	Similarity     float64 `json:"-"`
	MatchScore     float64 `json:"match_score"`
}
