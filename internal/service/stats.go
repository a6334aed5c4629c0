package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/leadreach/leadreach/internal/model"
)

// Stats are the dashboard's summary cards.
type Stats struct {
	TotalGroups     int
	TotalBusinesses int
	ThisMonth       int
}

// ComputeStats summarises a group list. TotalGroups is the backend's total,
// the business counts are summed over the groups present.
func ComputeStats(list *model.GroupList, now time.Time) Stats {
	if list == nil {
		return Stats{}
	}

	stats := Stats{TotalGroups: list.Total}
	for i := range list.Groups {
		g := &list.Groups[i]
		stats.TotalBusinesses += g.BusinessCount
		if g.CreatedInMonthOf(now) {
			stats.ThisMonth += g.BusinessCount
		}
	}
	return stats
}

// Filter returns the groups matching term, preserving order.
func Filter(groups []model.BusinessGroup, term string) []model.BusinessGroup {
	term = strings.TrimSpace(term)
	if term == "" {
		return groups
	}

	out := make([]model.BusinessGroup, 0, len(groups))
	for i := range groups {
		if groups[i].Matches(term) {
			out = append(out, groups[i])
		}
	}
	return out
}

var slugUnsafe = regexp.MustCompile(`(?i)[^a-z0-9]`)

// CSVFilename names a downloaded export: "<slug>-YYYY-MM-DD.csv", or
// "business-group-<id>-YYYY-MM-DD.csv" without a group name. The date is UTC.
func CSVFilename(groupName, id string, now time.Time) string {
	date := now.UTC().Format("2006-01-02")
	if strings.TrimSpace(groupName) == "" {
		return fmt.Sprintf("business-group-%s-%s.csv", slugUnsafe.ReplaceAllString(id, "-"), date)
	}
	slug := strings.ToLower(slugUnsafe.ReplaceAllString(groupName, "-"))
	return fmt.Sprintf("%s-%s.csv", slug, date)
}
