package schedule

import (
	"slices"
	"strings"

	"github.com/ressourcerie/planning/pkg/db"
)

// RecentLimit is the size of the recent logins list shown for an empty search
const RecentLimit = 8

// Search returns the volunteers matching query.
// An empty query returns the most recently connected volunteers instead.
func Search(query string, volunteers []db.Volunteer) []db.Volunteer {
	if strings.TrimSpace(query) == "" {
		return recentlyConnected(volunteers)
	}

	needle := strings.ToLower(query)
	matches := []db.Volunteer{}
	for _, v := range volunteers {
		if strings.Contains(strings.ToLower(v.Name), needle) {
			matches = append(matches, v)
		}
	}
	return matches
}

func recentlyConnected(volunteers []db.Volunteer) []db.Volunteer {
	recent := []db.Volunteer{}
	for _, v := range volunteers {
		if v.LastConnection != nil {
			recent = append(recent, v)
		}
	}

	slices.SortStableFunc(recent, func(a, b db.Volunteer) int {
		return b.LastConnection.Compare(*a.LastConnection)
	})

	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	return recent
}

// ExactMatchExists reports whether a volunteer's full name equals the trimmed query,
// ignoring case. Blank queries never match.
func ExactMatchExists(query string, volunteers []db.Volunteer) bool {
	wanted := strings.ToLower(strings.TrimSpace(query))
	if wanted == "" {
		return false
	}
	for _, v := range volunteers {
		if strings.ToLower(v.Name) == wanted {
			return true
		}
	}
	return false
}
