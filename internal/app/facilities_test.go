package app

import (
	"testing"

	"rahhal_engine/internal/domain"
)

var facilityCatalog = []domain.Facility{
	{ID: 1, Name: "Swimming Pool"},
	{ID: 2, Name: "Gym"},
	{ID: 3, Name: "Free WiFi"},
	{ID: 4, Name: "Spa"},
}

func TestMatchFacilities_ThresholdWindow(t *testing.T) {
	// A partial phrase clears a mid threshold but not a near-exact one.
	low := MatchFacilities([]string{"Pool"}, facilityCatalog, 60)
	if got, ok := low["Pool"]; !ok || got != 1 {
		t.Fatalf("threshold 60: want Pool -> 1, got %v (matched=%v)", got, ok)
	}
	if mid := MatchFacilities([]string{"Pool"}, facilityCatalog, 80); len(mid) != 1 {
		t.Fatalf("threshold 80: want a match, got %v", mid)
	}
	if high := MatchFacilities([]string{"Pool"}, facilityCatalog, 95); len(high) != 0 {
		t.Fatalf("threshold 95: want no match, got %v", high)
	}
}

func TestMatchFacilities_Exact(t *testing.T) {
	m := MatchFacilities([]string{"gym", "  FREE wifi "}, facilityCatalog, 95)
	if m["gym"] != 2 {
		t.Fatalf("want gym -> 2, got %v", m)
	}
	if m["  FREE wifi "] != 3 {
		t.Fatalf("want wifi -> 3, got %v", m)
	}
}

func TestMatchFacilities_DropsUnmatched(t *testing.T) {
	m := MatchFacilities([]string{"helipad", "", "   "}, facilityCatalog, 80)
	if len(m) != 0 {
		t.Fatalf("want empty match set, got %v", m)
	}
}

func TestMatchedIDs_Dedupe(t *testing.T) {
	ids := matchedIDs(map[string]int64{"pool": 1, "swimming": 1, "gym": 2})
	if len(ids) != 2 {
		t.Fatalf("want 2 distinct ids, got %v", ids)
	}
}
