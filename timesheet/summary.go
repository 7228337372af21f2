package timesheet

import (
	"sort"
	"strings"
)

// =============================================================================
// MONTHLY SUMMARY INDEX - Administrative cross-user view
// =============================================================================

// BuildIndex reduces per-month summaries to the review listing:
//
//  1. drop administrator accounts
//  2. keep the latest (year, month) per user
//  3. apply filters (year, month, username substring; AND)
//  4. sort by year desc, month desc, username asc
//
// The reduction does not depend on input order.
func BuildIndex(summaries []Summary, filter SummaryFilter) []Summary {
	latest := make(map[string]Summary)
	for _, s := range summaries {
		if s.IsAdmin {
			continue
		}
		key := string(s.UserID)
		cur, ok := latest[key]
		if !ok || isLater(s, cur) {
			latest[key] = s
		}
	}

	out := make([]Summary, 0, len(latest))
	for _, s := range latest {
		if filter.Matches(s) {
			out = append(out, s)
		}
	}
	SortSummaries(out)
	return out
}

func isLater(a, b Summary) bool {
	if a.Year != b.Year {
		return a.Year > b.Year
	}
	return a.Month > b.Month
}

// Matches applies the filter to one summary.
func (f SummaryFilter) Matches(s Summary) bool {
	if f.Year != nil && s.Year != *f.Year {
		return false
	}
	if f.Month != nil && s.Month != *f.Month {
		return false
	}
	if f.UsernameContains != "" &&
		!strings.Contains(strings.ToLower(s.Username), strings.ToLower(f.UsernameContains)) {
		return false
	}
	return true
}

// SortSummaries orders by year desc, month desc, username asc, user id asc.
func SortSummaries(s []Summary) {
	sort.SliceStable(s, func(i, j int) bool {
		a, b := s[i], s[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Month != b.Month {
			return a.Month > b.Month
		}
		if a.Username != b.Username {
			return a.Username < b.Username
		}
		return a.UserID < b.UserID
	})
}
