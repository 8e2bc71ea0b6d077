package domain

// Region is a catalog destination (a state/city row with an embedded
// description). Score is set on retrieval and is request-scoped.
type Region struct {
	ID          int64   `json:"region_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Lon         float64 `json:"longitude"`
	Lat         float64 `json:"latitude"`
	Score       float64 `json:"score"`
}

// Hotel is a scored hotel candidate. NightlyPrice is nil when the catalog has
// no price for the hotel; consumers see "price_per_night": null, never 0.
type Hotel struct {
	ID           int64    `json:"hotel_id"`
	Name         string   `json:"hotel_name"`
	Lon          float64  `json:"longitude"`
	Lat          float64  `json:"latitude"`
	NightlyPrice *float64 `json:"price_per_night"`
	FacilityIDs  []int64  `json:"facilities_ids"`
	Facilities   []string `json:"facilities"`
	Score        float64  `json:"score"`
}

type Facility struct {
	ID   int64
	Name string
}
