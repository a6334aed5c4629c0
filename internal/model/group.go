package model

import (
	"strings"
	"time"
)

// BusinessGroup is a named collection of businesses produced by one
// discovery request.
type BusinessGroup struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Keywords      []string  `json:"keywords"`
	Cities        []string  `json:"cities"`
	BusinessCount int       `json:"businessCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// GroupList is the response of GET /businesses.
type GroupList struct {
	Groups []BusinessGroup `json:"groups"`
	Total  int             `json:"total"`
}

// Matches reports whether the search term occurs, case-insensitively, in the
// group name or in any of its keywords or cities. An empty term matches.
func (g *BusinessGroup) Matches(term string) bool {
	needle := strings.ToLower(term)
	if needle == "" {
		return true
	}

	if strings.Contains(strings.ToLower(g.Name), needle) {
		return true
	}
	for _, keyword := range g.Keywords {
		if strings.Contains(strings.ToLower(keyword), needle) {
			return true
		}
	}
	for _, city := range g.Cities {
		if strings.Contains(strings.ToLower(city), needle) {
			return true
		}
	}
	return false
}

// CreatedInMonthOf reports whether the group was created in the same calendar
// month and year as now. Both times are compared in now's location.
func (g *BusinessGroup) CreatedInMonthOf(now time.Time) bool {
	if g.CreatedAt.IsZero() {
		return false
	}
	created := g.CreatedAt.In(now.Location())
	return created.Year() == now.Year() && created.Month() == now.Month()
}

// DiscoverRequest is the payload for POST /businesses/discover.
type DiscoverRequest struct {
	Keywords []string `json:"keywords"`
	Cities   []string `json:"cities"`
	Limit    int      `json:"limit"`
}

// DiscoverSummary reports what a discovery run produced.
type DiscoverSummary struct {
	Discovered int `json:"discovered"`
}

// DiscoverResponse is the backend's answer to a discovery request.
type DiscoverResponse struct {
	Message string `json:"message,omitempty"`
	Data    struct {
		Summary DiscoverSummary `json:"summary"`
	} `json:"data"`
}

// Discovered returns the number of businesses found, zero when the backend
// omitted the summary.
func (r *DiscoverResponse) Discovered() int {
	if r == nil {
		return 0
	}
	return r.Data.Summary.Discovered
}
