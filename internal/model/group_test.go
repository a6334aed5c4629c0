package model

import (
	"testing"
	"time"
)

func TestBusinessGroup_Matches(t *testing.T) {
	t.Parallel()

	group := &BusinessGroup{
		Name:     "Sacramento Pizza",
		Keywords: []string{"pizza", "Italian Food"},
		Cities:   []string{"Sacramento CA", "Davis CA"},
	}

	tests := []struct {
		name string
		term string
		want bool
	}{
		{"empty term", "", true},
		{"name match", "sacramento", true},
		{"name match uppercase", "PIZZA", true},
		{"keyword match", "italian", true},
		{"city match", "davis", true},
		{"partial city", "ca", true},
		{"no match", "plumber", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := group.Matches(tt.term); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.term, got, tt.want)
			}
		})
	}
}

func TestBusinessGroup_Matches_NilSlices(t *testing.T) {
	t.Parallel()

	group := &BusinessGroup{Name: "Plumbers"}
	if group.Matches("davis") {
		t.Error("group without cities should not match a city term")
	}
}

func TestBusinessGroup_CreatedInMonthOf(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		created time.Time
		want    bool
	}{
		{"same month", time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC), true},
		{"previous month", time.Date(2026, time.September, 30, 23, 0, 0, 0, time.UTC), false},
		{"same month last year", time.Date(2025, time.October, 18, 0, 0, 0, 0, time.UTC), false},
		{"zero time", time.Time{}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			group := &BusinessGroup{CreatedAt: tt.created}
			if got := group.CreatedInMonthOf(now); got != tt.want {
				t.Errorf("CreatedInMonthOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscoverResponse_Discovered(t *testing.T) {
	t.Parallel()

	var nilResp *DiscoverResponse
	if got := nilResp.Discovered(); got != 0 {
		t.Errorf("nil response Discovered() = %d, want 0", got)
	}

	resp := &DiscoverResponse{}
	resp.Data.Summary.Discovered = 42
	if got := resp.Discovered(); got != 42 {
		t.Errorf("Discovered() = %d, want 42", got)
	}
}
