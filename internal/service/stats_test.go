package service

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/leadreach/leadreach/internal/model"
)

func TestComputeStats(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
	list := &model.GroupList{
		Total: 7,
		Groups: []model.BusinessGroup{
			{ID: "a", BusinessCount: 10, CreatedAt: time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)},
			{ID: "b", BusinessCount: 5, CreatedAt: time.Date(2026, time.September, 30, 0, 0, 0, 0, time.UTC)},
			{ID: "c", BusinessCount: 3, CreatedAt: time.Date(2025, time.October, 18, 0, 0, 0, 0, time.UTC)},
			{ID: "d", BusinessCount: 2},
		},
	}

	want := Stats{TotalGroups: 7, TotalBusinesses: 20, ThisMonth: 10}
	if diff := cmp.Diff(want, ComputeStats(list, now)); diff != "" {
		t.Errorf("ComputeStats mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(Stats{}, ComputeStats(nil, now)); diff != "" {
		t.Errorf("ComputeStats(nil) mismatch (-want +got):\n%s", diff)
	}
}

func TestFilter(t *testing.T) {
	t.Parallel()

	groups := []model.BusinessGroup{
		{ID: "1", Name: "Coffee Austin", Keywords: []string{"coffee"}, Cities: []string{"Austin"}},
		{ID: "2", Name: "Plumbers", Keywords: []string{"plumber"}, Cities: []string{"Denver"}},
		{ID: "3", Name: "Bakeries", Keywords: []string{"bakery"}, Cities: []string{"austin"}},
	}

	ids := func(gs []model.BusinessGroup) []string {
		out := make([]string, 0, len(gs))
		for _, g := range gs {
			out = append(out, g.ID)
		}
		return out
	}

	tests := []struct {
		term string
		want []string
	}{
		{"", []string{"1", "2", "3"}},
		{"   ", []string{"1", "2", "3"}},
		{"AUSTIN", []string{"1", "3"}},
		{"plumb", []string{"2"}},
		{"zzz", []string{}},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, ids(Filter(groups, tt.term))); diff != "" {
			t.Errorf("Filter(%q) mismatch (-want +got):\n%s", tt.term, diff)
		}
	}
}

func TestCSVFilename(t *testing.T) {
	t.Parallel()

	// Late evening in New York is already the next day in UTC.
	ny := time.FixedZone("EDT", -4*60*60)
	now := time.Date(2026, time.October, 18, 22, 30, 0, 0, ny)

	tests := []struct {
		name      string
		groupName string
		id        string
		want      string
	}{
		{"simple", "Coffee in Austin", "g1", "coffee-in-austin-2026-10-19.csv"},
		{"punctuation", "Bars & Pubs, NYC!", "g1", "bars---pubs--nyc--2026-10-19.csv"},
		{"digits kept", "Top 10", "g1", "top-10-2026-10-19.csv"},
		{"empty name", "", "abc123", "business-group-abc123-2026-10-19.csv"},
		{"blank name", "  ", "abc123", "business-group-abc123-2026-10-19.csv"},
		{"unsafe id", "", "a/b", "business-group-a-b-2026-10-19.csv"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CSVFilename(tt.groupName, tt.id, now); got != tt.want {
				t.Errorf("CSVFilename(%q, %q) = %q, want %q", tt.groupName, tt.id, got, tt.want)
			}
		})
	}
}
